/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements.  See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License.  You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package zookeeper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshrpc/meshrpc/common"
	"github.com/meshrpc/meshrpc/common/constant"
)

func mustURL(t *testing.T, raw string) *common.URL {
	t.Helper()
	u, err := common.NewURL(raw)
	require.NoError(t, err)
	return u
}

func TestCategoryPathAndWatcherKey(t *testing.T) {
	url := mustURL(t, "dubbo://127.0.0.1:20880/com.example.Greeter?interface=com.example.Greeter&group=g1&version=1.0.0")

	assert.Equal(t, rootPath+"/"+url.EncodedServiceKey()+"/"+constant.CategoryProviders, categoryPath(url, constant.CategoryProviders))
	assert.Equal(t, url.ServiceKey()+"#"+constant.CategoryProviders, watcherKey(url, constant.CategoryProviders))
}

func TestEncodeDecodeNodeRoundTrips(t *testing.T) {
	raw := "dubbo://127.0.0.1:20880/com.example.Greeter?interface=com.example.Greeter"
	encoded := encodeNode(raw)
	assert.NotContains(t, encoded, "/")
	assert.Equal(t, raw, decodeNode(encoded))
}

func TestDecodeChildrenSkipsUnparseableNodes(t *testing.T) {
	good := "dubbo://127.0.0.1:20880/com.example.Greeter?interface=com.example.Greeter"
	children := []string{encodeNode(good), "%not a url%"}

	urls := decodeChildren(children)

	require.Len(t, urls, 1)
	assert.Equal(t, "127.0.0.1", urls[0].Ip)
	assert.Equal(t, "com.example.Greeter", urls[0].GetParam(constant.InterfaceKey, ""))
}

func TestCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	children := []string{"a", "b", "c"}

	saveCache(dir, "/dubbo/com.example.Greeter/providers", children)
	got := cachedChildren(dir, "/dubbo/com.example.Greeter/providers")

	assert.Equal(t, children, got)
}

func TestCachedChildrenMissingReturnsNil(t *testing.T) {
	dir := t.TempDir()
	assert.Nil(t, cachedChildren(dir, "/dubbo/nothing/here"))
}

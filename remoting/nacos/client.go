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

// Package nacos builds the nacos-sdk-go naming client a registry/nacos
// ServiceDiscovery wraps, parsing connection parameters out of a
// common.URL the way the rest of the remoting/* backends do.
package nacos

import (
	"strconv"
	"strings"
	"time"

	nacosClient "github.com/dubbogo/gost/database/kv/nacos"
	"github.com/nacos-group/nacos-sdk-go/v2/clients"
	"github.com/nacos-group/nacos-sdk-go/v2/clients/naming_client"
	nacosConstant "github.com/nacos-group/nacos-sdk-go/v2/common/constant"
	"github.com/nacos-group/nacos-sdk-go/v2/vo"

	"github.com/meshrpc/meshrpc/common"
	"github.com/meshrpc/meshrpc/common/constant"
)

const defaultTimeout = 5 * time.Second

// NewNacosClientByURL builds a NacosNamingClient from the connection
// parameters encoded in url (host:port list, namespace id, credentials,
// timeout).
func NewNacosClientByURL(url *common.URL) (*nacosClient.NacosNamingClient, error) {
	timeout, err := time.ParseDuration(url.GetParam(constant.TimeoutKey, constant.DefaultRegTimeout))
	if err != nil {
		timeout = defaultTimeout
	}

	serverConfigs := make([]nacosConstant.ServerConfig, 0, 1)
	for _, addr := range strings.Split(url.Location, ",") {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		ip, portStr, splitErr := splitHostPort(addr)
		if splitErr != nil {
			continue
		}
		port, _ := strconv.ParseUint(portStr, 10, 64)
		serverConfigs = append(serverConfigs, *nacosConstant.NewServerConfig(ip, port))
	}

	clientConfig := nacosConstant.ClientConfig{
		TimeoutMs:           uint64(timeout.Milliseconds()),
		NamespaceId:         url.GetParam(constant.NacosNamespaceID, ""),
		Username:            url.Username,
		Password:            url.Password,
		NotLoadCacheAtStart: true,
	}

	namingClient, err := clients.NewNamingClient(vo.NacosClientParam{
		ClientConfig:  &clientConfig,
		ServerConfigs: serverConfigs,
	})
	if err != nil {
		return nil, err
	}
	return nacosClient.NewNacosNamingClient(url.Location, true, func() (naming_client.INamingClient, error) {
		return namingClient, nil
	}), nil
}

func splitHostPort(addr string) (string, string, error) {
	idx := strings.LastIndex(addr, ":")
	if idx < 0 {
		return addr, "8848", nil
	}
	return addr[:idx], addr[idx+1:], nil
}

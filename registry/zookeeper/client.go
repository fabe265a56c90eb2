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

// Package zookeeper implements registry.Registry against a zookeeper
// ensemble (spec.md §4.2 "zookeeper backend"): ephemeral provider znodes,
// persistent router/configurator znodes, a local-disk fallback cache, and
// an exponential-backoff-with-jitter reconnect loop driven by the zk
// client's own session-state event stream.
package zookeeper

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dubbogo/go-zookeeper/zk"
	"github.com/dubbogo/gost/log/logger"

	"github.com/meshrpc/meshrpc/common"
	"github.com/meshrpc/meshrpc/common/constant"
	"github.com/meshrpc/meshrpc/common/extension"
	"github.com/meshrpc/meshrpc/registry"
)

func init() {
	extension.SetRegistry(constant.ZookeeperKey, newZookeeperRegistry)
}

const (
	rootPath          = "/dubbo"
	sessionTimeout    = 15 * time.Second
	minReconnectDelay = 500 * time.Millisecond
	maxReconnectDelay = 30 * time.Second
)

// zookeeperRegistry is the registry.Registry implementation backing
// spec.md's zookeeper category layout: /dubbo/<serviceKey>/<category>/<urlEncodedURL>.
type zookeeperRegistry struct {
	url      *common.URL
	cacheDir string

	mu        sync.Mutex
	conn      *zk.Conn
	events    <-chan zk.Event
	closed    bool
	closeCh   chan struct{}
	available bool

	watchersMu sync.Mutex
	watchers   map[string]*categoryWatcher // keyed by znode path
}

func newZookeeperRegistry(url *common.URL) (registry.Registry, error) {
	r := &zookeeperRegistry{
		url:      url,
		cacheDir: url.GetParam("file.cache.dir", os.TempDir()),
		closeCh:  make(chan struct{}),
		watchers: make(map[string]*categoryWatcher),
	}
	if err := r.connect(); err != nil {
		return nil, err
	}
	go r.watchSession()
	return r, nil
}

func (r *zookeeperRegistry) connect() error {
	servers := strings.Split(r.url.Location, ",")
	conn, events, err := zk.Connect(servers, sessionTimeout)
	if err != nil {
		return fmt.Errorf("zookeeper: connect to %v: %w", servers, err)
	}
	r.mu.Lock()
	r.conn = conn
	r.events = events
	r.available = true
	r.mu.Unlock()
	return nil
}

// watchSession reacts to session state changes on the zk event stream,
// reconnecting with exponential backoff and jitter on disconnect/expiry,
// and re-installing every live watcher once the new session is up.
func (r *zookeeperRegistry) watchSession() {
	delay := minReconnectDelay
	for {
		r.mu.Lock()
		events := r.events
		closed := r.closed
		r.mu.Unlock()
		if closed {
			return
		}

		select {
		case evt, ok := <-events:
			if !ok {
				return
			}
			switch evt.State {
			case zk.StateDisconnected, zk.StateExpired:
				r.mu.Lock()
				r.available = false
				r.mu.Unlock()
				logger.Warnf("zookeeper: session state %v, reconnecting", evt.State)
				r.reconnectWithBackoff(&delay)
			case zk.StateHasSession:
				r.mu.Lock()
				r.available = true
				r.mu.Unlock()
				delay = minReconnectDelay
				r.resubscribeAll()
			}
		case <-r.closeCh:
			return
		}
	}
}

func (r *zookeeperRegistry) reconnectWithBackoff(delay *time.Duration) {
	for {
		jitter := time.Duration(rand.Int63n(int64(*delay) / 2 + 1))
		time.Sleep(*delay + jitter)

		r.mu.Lock()
		closed := r.closed
		r.mu.Unlock()
		if closed {
			return
		}

		if err := r.connect(); err == nil {
			return
		}
		*delay *= 2
		if *delay > maxReconnectDelay {
			*delay = maxReconnectDelay
		}
	}
}

func (r *zookeeperRegistry) resubscribeAll() {
	r.watchersMu.Lock()
	watchers := make([]*categoryWatcher, 0, len(r.watchers))
	for _, w := range r.watchers {
		watchers = append(watchers, w)
	}
	r.watchersMu.Unlock()
	for _, w := range watchers {
		w.refresh()
	}
}

func (r *zookeeperRegistry) GetURL() *common.URL { return r.url }

func (r *zookeeperRegistry) IsAvailable() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.available
}

// Register creates url's znode: ephemeral under the providers category,
// persistent under routers/configurators (spec.md §4.2 "ephemeral vs
// persistent by category").
func (r *zookeeperRegistry) Register(url *common.URL) error {
	category := url.GetParam(constant.CategoryKey, constant.CategoryProviders)
	dir := categoryPath(url, category)
	if err := r.ensurePath(dir, false); err != nil {
		if url.GetParamBool(constant.CheckKey, true) {
			return err
		}
		logger.Warnf("zookeeper: register %s failed, will not retry in background: %v", url, err)
		return nil
	}

	node := dir + "/" + encodeNode(url.String())
	flags := int32(0)
	if category == constant.CategoryProviders {
		flags = zk.FlagEphemeral
	}

	r.mu.Lock()
	conn := r.conn
	r.mu.Unlock()
	_, err := conn.Create(node, []byte(url.String()), flags, zk.WorldACL(zk.PermAll))
	if err != nil && err != zk.ErrNodeExists {
		if url.GetParamBool(constant.CheckKey, true) {
			return fmt.Errorf("zookeeper: create %s: %w", node, err)
		}
		logger.Warnf("zookeeper: register %s failed: %v", url, err)
	}
	return nil
}

func (r *zookeeperRegistry) UnRegister(url *common.URL) error {
	category := url.GetParam(constant.CategoryKey, constant.CategoryProviders)
	node := categoryPath(url, category) + "/" + encodeNode(url.String())

	r.mu.Lock()
	conn := r.conn
	r.mu.Unlock()
	if err := conn.Delete(node, -1); err != nil && err != zk.ErrNoNode {
		return fmt.Errorf("zookeeper: delete %s: %w", node, err)
	}
	return nil
}

// ensurePath creates dir and every missing ancestor of it as persistent
// znodes.
func (r *zookeeperRegistry) ensurePath(dir string, ephemeralLeaf bool) error {
	r.mu.Lock()
	conn := r.conn
	r.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("zookeeper: no live connection")
	}

	parts := strings.Split(strings.Trim(dir, "/"), "/")
	cur := ""
	for _, p := range parts {
		cur += "/" + p
		exists, _, err := conn.Exists(cur)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		_, err = conn.Create(cur, nil, 0, zk.WorldACL(zk.PermAll))
		if err != nil && err != zk.ErrNodeExists {
			return err
		}
	}
	return nil
}

// Subscribe installs a watcher over providers/routers/configurators for
// url's service key, delivering the current full state immediately and
// again on every subsequent znode-children change.
func (r *zookeeperRegistry) Subscribe(url *common.URL, listener registry.NotifyListener) error {
	for _, category := range []string{constant.CategoryProviders, constant.CategoryRouters, constant.CategoryConfigurators} {
		dir := categoryPath(url, category)
		if err := r.ensurePath(dir, false); err != nil {
			logger.Warnf("zookeeper: subscribe ensurePath %s: %v", dir, err)
		}

		w := &categoryWatcher{
			reg:      r,
			dir:      dir,
			category: category,
			url:      url,
			listener: listener,
		}
		r.watchersMu.Lock()
		r.watchers[watcherKey(url, category)] = w
		r.watchersMu.Unlock()
		w.refresh()
	}
	return nil
}

func (r *zookeeperRegistry) UnSubscribe(url *common.URL, listener registry.NotifyListener) error {
	r.watchersMu.Lock()
	defer r.watchersMu.Unlock()
	for _, category := range []string{constant.CategoryProviders, constant.CategoryRouters, constant.CategoryConfigurators} {
		delete(r.watchers, watcherKey(url, category))
	}
	return nil
}

// LookUp returns the current providers-category snapshot without
// installing a watch.
func (r *zookeeperRegistry) LookUp(url *common.URL) ([]*common.URL, error) {
	dir := categoryPath(url, constant.CategoryProviders)
	r.mu.Lock()
	conn := r.conn
	r.mu.Unlock()
	if conn == nil {
		return decodeChildren(cachedChildren(r.cacheDir, dir)), nil
	}
	children, _, err := conn.Children(dir)
	if err != nil {
		return decodeChildren(cachedChildren(r.cacheDir, dir)), nil
	}
	return decodeChildren(children), nil
}

func (r *zookeeperRegistry) Destroy() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	conn := r.conn
	r.mu.Unlock()

	close(r.closeCh)
	if conn != nil {
		conn.Close()
	}
}

// categoryWatcher owns one (service key, category) ChildrenW loop.
type categoryWatcher struct {
	reg      *zookeeperRegistry
	dir      string
	category string
	url      *common.URL
	listener registry.NotifyListener
}

// refresh re-lists dir's children (re-arming the watch) and notifies the
// listener with the full-state snapshot, caching it to disk for later
// LookUp/refresh calls made while zk is unreachable.
func (w *categoryWatcher) refresh() {
	w.reg.mu.Lock()
	conn := w.reg.conn
	w.reg.mu.Unlock()
	if conn == nil {
		return
	}

	children, _, eventCh, err := conn.ChildrenW(w.dir)
	if err != nil {
		logger.Warnf("zookeeper: ChildrenW %s: %v", w.dir, err)
		children = cachedChildren(w.reg.cacheDir, w.dir)
	} else {
		saveCache(w.reg.cacheDir, w.dir, children)
		go w.waitAndRefresh(eventCh)
	}

	urls := decodeChildren(children)
	events := make([]*registry.ServiceEvent, 0, len(urls))
	for _, u := range urls {
		events = append(events, &registry.ServiceEvent{Action: registry.EventTypeAdd, Service: u})
	}
	if len(events) == 0 {
		empty := w.url.Clone()
		empty.Protocol = constant.EmptyProtocol
		empty.SetParam(constant.CategoryKey, w.category)
		events = append(events, &registry.ServiceEvent{Action: registry.EventTypeAdd, Service: empty})
	}
	w.listener.NotifyAll(events, func() {})
}

func (w *categoryWatcher) waitAndRefresh(eventCh <-chan zk.Event) {
	select {
	case <-eventCh:
		w.refresh()
	case <-w.reg.closeCh:
	}
}

func categoryPath(url *common.URL, category string) string {
	return rootPath + "/" + url.EncodedServiceKey() + "/" + category
}

func watcherKey(url *common.URL, category string) string {
	return url.ServiceKey() + "#" + category
}

func encodeNode(raw string) string {
	return strings.ReplaceAll(raw, "/", "%2F")
}

func decodeNode(node string) string {
	return strings.ReplaceAll(node, "%2F", "/")
}

func decodeChildren(children []string) []*common.URL {
	urls := make([]*common.URL, 0, len(children))
	for _, c := range children {
		u, err := common.NewURL(decodeNode(c))
		if err != nil {
			logger.Warnf("zookeeper: decoding znode %q as URL: %v", c, err)
			continue
		}
		urls = append(urls, u)
	}
	return urls
}

func cacheFile(cacheDir, dir string) string {
	return filepath.Join(cacheDir, strings.ReplaceAll(strings.Trim(dir, "/"), "/", "_")+".cache")
}

func saveCache(cacheDir, dir string, children []string) {
	data, err := json.Marshal(children)
	if err != nil {
		return
	}
	_ = os.WriteFile(cacheFile(cacheDir, dir), data, 0o644)
}

func cachedChildren(cacheDir, dir string) []string {
	data, err := os.ReadFile(cacheFile(cacheDir, dir))
	if err != nil {
		return nil
	}
	var children []string
	if err := json.Unmarshal(data, &children); err != nil {
		return nil
	}
	return children
}

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

package nacos

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"sync"

	gxset "github.com/dubbogo/gost/container/set"
	nacosClient "github.com/dubbogo/gost/database/kv/nacos"
	"github.com/dubbogo/gost/log/logger"
	"github.com/nacos-group/nacos-sdk-go/v2/model"
	"github.com/nacos-group/nacos-sdk-go/v2/vo"
	perrors "github.com/pkg/errors"

	"github.com/meshrpc/meshrpc/common"
	"github.com/meshrpc/meshrpc/common/constant"
	"github.com/meshrpc/meshrpc/common/extension"
	"github.com/meshrpc/meshrpc/registry"
	"github.com/meshrpc/meshrpc/remoting/nacos"
)

// idMetadataKey stores a ServiceInstance's own ID inside its nacos metadata
// blob, since the nacos instance model has no dedicated ID field.
const idMetadataKey = "id"

// interfaceServicePattern matches the ":"-joined providers:<interface>
// DataIds nacos namingClient.GetAllServicesInfo returns alongside other
// service names; GetServices filters these out. (nacosRegistry names its
// instances by encoded service key, which this pattern does not match.)
var interfaceServicePattern = regexp.MustCompile(`^providers:[\w.]+(?::[\w.]*:|::[\w.]*)?$`)

func init() {
	extension.SetServiceDiscovery(constant.NacosKey, newNacosServiceDiscovery)
}

// nacosServiceDiscovery implements registry.ServiceDiscovery over a nacos
// namingClient. The nacos SDK's instance model has no ID field, so IDs ride
// along in instance metadata under idMetadataKey instead.
type nacosServiceDiscovery struct {
	group      string
	descriptor string

	namingClient *nacosClient.NacosNamingClient

	mu                sync.Mutex
	registered        []registry.ServiceInstance
	byServiceName     map[string][]registry.ServiceInstance // batches re-registration per service
	listenersByService map[string]*gxset.HashSet

	// registryURL carries overrides (e.g. a registry.weight param) applied
	// on top of whatever weight the ServiceInstance itself advertises.
	registryURL *common.URL
}

func newNacosServiceDiscovery(url *common.URL) (registry.ServiceDiscovery, error) {
	discoveryURL := common.NewURLWithOptions(
		common.WithParams(url.GetParams()),
		common.WithParamsValue(constant.TimeoutKey, url.GetParam(constant.RegistryTimeoutKey, constant.DefaultRegTimeout)),
		common.WithParamsValue(constant.NacosGroupKey, url.GetParam(constant.RegistryGroupKey, constant.ServiceDiscoveryDefaultGroup)),
		common.WithParamsValue(constant.NacosUsername, url.Username),
		common.WithParamsValue(constant.NacosPassword, url.Password),
		common.WithParamsValue(constant.NacosNamespaceID, url.GetParam(constant.RegistryNamespaceKey, "")),
	)
	discoveryURL.Location = url.Location
	discoveryURL.Username = url.Username
	discoveryURL.Password = url.Password

	client, err := nacos.NewNacosClientByURL(discoveryURL)
	if err != nil {
		return nil, perrors.WithMessage(err, "nacos: create naming client")
	}

	group := url.GetParam(constant.RegistryGroupKey, constant.ServiceDiscoveryDefaultGroup)
	return &nacosServiceDiscovery{
		group:               group,
		descriptor:          fmt.Sprintf("nacos-service-discovery[%s]", discoveryURL.Location),
		namingClient:        client,
		byServiceName:       make(map[string][]registry.ServiceInstance),
		listenersByService:  make(map[string]*gxset.HashSet),
		registryURL:         url,
	}, nil
}

// Destroy unregisters every instance this discovery ever registered, then
// closes the underlying namingClient session.
func (n *nacosServiceDiscovery) Destroy() error {
	n.mu.Lock()
	registered := n.registered
	n.mu.Unlock()

	for _, inst := range registered {
		if err := n.Unregister(inst); err != nil {
			logger.Errorf("nacos: unregister %s on destroy: %v", inst.GetID(), err)
		}
	}
	n.namingClient.Close()
	return nil
}

// Register batch-registers instance alongside every other instance already
// registered under the same service name, since the nacos SDK only exposes
// a batch registration call, not a single-instance one.
func (n *nacosServiceDiscovery) Register(instance registry.ServiceInstance) error {
	name := instance.GetServiceName()

	n.mu.Lock()
	n.byServiceName[name] = append(n.byServiceName[name], instance)
	batch := n.toBatchRegisterParam(n.byServiceName[name])
	n.mu.Unlock()

	ok, err := n.namingClient.Client().BatchRegisterInstance(batch)
	if err != nil || !ok {
		return perrors.Errorf("nacos: register instances for %s: %v", name, err)
	}

	n.mu.Lock()
	n.registered = append(n.registered, instance)
	n.mu.Unlock()
	return nil
}

// Update re-registers instance: the nacos SDK has no update call, so this
// unregisters the old state and registers the new one in its place.
func (n *nacosServiceDiscovery) Update(instance registry.ServiceInstance) error {
	if err := n.Unregister(instance); err != nil {
		return perrors.WithStack(err)
	}
	return n.Register(instance)
}

func (n *nacosServiceDiscovery) Unregister(instance registry.ServiceInstance) error {
	ok, err := n.namingClient.Client().DeregisterInstance(vo.DeregisterInstanceParam{
		ServiceName: instance.GetServiceName(),
		Ip:          instance.GetHost(),
		Port:        uint64(instance.GetPort()),
		GroupName:   n.group,
	})
	if err != nil || !ok {
		return perrors.WithMessage(err, "nacos: unregister "+instance.GetServiceName())
	}
	return nil
}

func (n *nacosServiceDiscovery) GetDefaultPageSize() int {
	return registry.DefaultPageSize
}

// GetServices lists every service name known to this group, skipping the
// providers:<interface> DataIds nacos also surfaces.
func (n *nacosServiceDiscovery) GetServices() *gxset.HashSet {
	names := gxset.NewSet()
	pageSize := n.GetDefaultPageSize()

	for page := uint32(1); ; page++ {
		resp, err := n.namingClient.Client().GetAllServicesInfo(vo.GetAllServiceInfoParam{
			PageSize:  uint32(pageSize),
			PageNo:    page,
			GroupName: n.group,
		})
		if err != nil {
			logger.Errorf("nacos: list services: %v", err)
			return names
		}
		for _, name := range resp.Doms {
			if !interfaceServicePattern.MatchString(name) {
				names.Add(name)
			}
		}
		if int(resp.Count) < pageSize {
			return names
		}
	}
}

func (n *nacosServiceDiscovery) GetInstances(serviceName string) []registry.ServiceInstance {
	instances, err := n.namingClient.Client().SelectAllInstances(vo.SelectAllInstancesParam{
		ServiceName: serviceName,
		GroupName:   n.group,
	})
	if err != nil {
		logger.Errorf("nacos: list instances for %s/%s: %v", n.group, serviceName, err)
		return nil
	}

	out := make([]registry.ServiceInstance, 0, len(instances))
	for _, inst := range instances {
		out = append(out, toServiceInstance(serviceName, n.group, inst.Ip, int(inst.Port), inst.Weight, inst.Enable, inst.Healthy, inst.Metadata))
	}
	return out
}

func (n *nacosServiceDiscovery) addListener(listener registry.ServiceInstancesChangedListener) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, v := range listener.GetServiceNames().Values() {
		serviceName, ok := v.(string)
		if !ok {
			logger.Errorf("nacos: non-string service name in listener set: %v", v)
			continue
		}
		set, ok := n.listenersByService[serviceName]
		if !ok {
			set = gxset.NewSet()
			n.listenersByService[serviceName] = set
		}
		set.Add(listener)
	}
}

// AddListener subscribes to every service name listener watches and fans
// the resulting nacos SubscribeCallback out to every listener registered
// for that name.
func (n *nacosServiceDiscovery) AddListener(listener registry.ServiceInstancesChangedListener) error {
	n.addListener(listener)

	for _, v := range listener.GetServiceNames().Values() {
		serviceName := v.(string)
		err := n.namingClient.Client().Subscribe(&vo.SubscribeParam{
			ServiceName:       serviceName,
			GroupName:         n.group,
			SubscribeCallback: n.subscribeCallback(serviceName),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (n *nacosServiceDiscovery) subscribeCallback(serviceName string) func([]model.Instance, error) {
	return func(services []model.Instance, err error) {
		if err != nil {
			logger.Errorf("nacos: subscribe callback for %s: %v", serviceName, err)
			return
		}

		instances := make([]registry.ServiceInstance, 0, len(services))
		for _, svc := range services {
			instances = append(instances, toServiceInstance(serviceName, n.group, svc.Ip, int(svc.Port), svc.Weight, svc.Enable, true, svc.Metadata))
		}

		n.mu.Lock()
		set := n.listenersByService[serviceName]
		n.mu.Unlock()
		if set == nil {
			return
		}
		event := registry.NewServiceInstancesChangedEvent(serviceName, instances)
		for _, l := range set.Values() {
			if e := l.(registry.ServiceInstancesChangedListener).OnEvent(event); e != nil {
				logger.Errorf("nacos: dispatch change event for %s: %v", serviceName, e)
			}
		}
	}
}

// toServiceInstance converts one nacos-side instance record into a
// registry.DefaultServiceInstance, recovering the ID meshrpc assigned it
// from metadata rather than trusting nacos's own instance ID.
func toServiceInstance(serviceName, group, host string, port int, weight float64, enable, healthy bool, metadata map[string]string) registry.ServiceInstance {
	id := metadata[idMetadataKey]
	delete(metadata, idMetadataKey)
	return &registry.DefaultServiceInstance{
		ID:          id,
		ServiceName: serviceName,
		Host:        host,
		Port:        port,
		Weight:      int64(math.Round(weight)),
		Enable:      enable,
		Healthy:     healthy,
		Metadata:    metadata,
		GroupName:   group,
	}
}

// resolveWeight picks the weight a registration should advertise: the
// instance's own weight, overridden by registry.weight on the registry URL
// if set. A non-positive weight is replaced by DefaultNacosWeight (nacos
// ignores an instance advertising weight 0 entirely), and a weight above
// MaxNacosWeight is capped at MaxNacosWeight.
func (n *nacosServiceDiscovery) resolveWeight(instance registry.ServiceInstance) float64 {
	w := instance.GetWeight()
	if override := n.registryURL.GetParam(constant.RegistryKey+"."+constant.WeightKey, ""); override != "" {
		if parsed, err := strconv.ParseFloat(override, 64); err == nil {
			w = int64(parsed)
		} else {
			logger.Warnf("nacos: invalid registry.weight override %q: %v", override, err)
		}
	}
	switch {
	case w <= 0:
		w = constant.DefaultNacosWeight
	case w > constant.MaxNacosWeight:
		w = constant.MaxNacosWeight
	}
	return float64(w)
}

func (n *nacosServiceDiscovery) toRegisterParam(instance registry.ServiceInstance) vo.RegisterInstanceParam {
	metadata := instance.GetMetadata()
	if metadata == nil {
		metadata = make(map[string]string, 1)
	}
	metadata[idMetadataKey] = instance.GetID()

	return vo.RegisterInstanceParam{
		ServiceName: instance.GetServiceName(),
		Ip:          instance.GetHost(),
		Port:        uint64(instance.GetPort()),
		Metadata:    metadata,
		Weight:      n.resolveWeight(instance),
		Enable:      instance.IsEnable(),
		Healthy:     instance.IsHealthy(),
		GroupName:   n.group,
		Ephemeral:   true,
	}
}

func (n *nacosServiceDiscovery) toBatchRegisterParam(instances []registry.ServiceInstance) vo.BatchRegisterInstanceParam {
	params := make([]vo.RegisterInstanceParam, 0, len(instances))
	for _, instance := range instances {
		params = append(params, n.toRegisterParam(instance))
	}
	if len(params) == 0 {
		return vo.BatchRegisterInstanceParam{}
	}
	return vo.BatchRegisterInstanceParam{
		ServiceName: params[0].ServiceName,
		GroupName:   n.group,
		Instances:   params,
	}
}

func (n *nacosServiceDiscovery) String() string {
	return n.descriptor
}

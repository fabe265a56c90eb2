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

// Package constant holds the shared parameter keys and default values used
// across the extension, registry, cluster and protocol packages.
package constant

import "time"

// URL parameter keys.
const (
	InterfaceKey     = "interface"
	GroupKey         = "group"
	VersionKey       = "version"
	ClusterKey       = "cluster"
	LoadbalanceKey   = "loadbalance"
	RetriesKey       = "retries"
	TimeoutKey       = "timeout"
	WeightKey        = "weight"
	WarmupKey        = "warmup"
	StickyKey        = "sticky"
	AsyncKey         = "async"
	GenericKey       = "generic"
	TokenKey         = "token"
	CategoryKey      = "category"
	EnabledKey       = "enabled"
	DynamicKey       = "dynamic"
	CheckKey         = "check"
	SerializationKey = "serialization"
	CodecKey         = "codec"
	HeartbeatKey     = "heartbeat"
	ForceKey         = "force"
	RuleKey          = "rule"
	PriorityKey      = "priority"
	SideKey          = "side"
	RegistryRoleKey  = "registry.role"
	BeanNameKey      = "bean.name"
	MetadataTypeKey  = "metadata.type"
	TimestampKey     = "timestamp"
	RemoteTimestampKey = "remote.timestamp"
	ReleaseKey       = "release"
	ApplicationKey   = "application"
	OrganizationKey  = "organization"
	NameKey          = "name"
	ModuleKey        = "module"
	AppVersionKey    = "app.version"
	OwnerKey         = "owner"
	EnvironmentKey   = "environment"
	ForceUseTag      = "dubbo.force.tag"
	TagKey           = "dubbo.tag"
	PathSeparatorStr = "/"
	KeySeparatorStr  = ":"
	RegistryKey      = "registry"
	RegistryGroupKey = "registry.group"
	RegistryNamespaceKey = "registry.namespace"
	RegistryTimeoutKey   = "registry.timeout"
	MeshClusterIDKey     = "mesh.cluster.id"
	ReferenceFilterKey   = "reference.filter"
	ServiceFilterKey     = "service.filter"
	GenericFilterKey     = "generic"
	MetricsFilterKey     = "metrics"
	TracingConfigKey     = "tracing-key"
	HashArgumentsKey     = "hash.arguments"
	ForksKey             = "forks"
	ServiceInstanceEndpoints = "dubbo.endpoints"
	Tagkey                   = "dubbo.tag"
)

// Path/key separators, mirroring dubbo's service-key grammar.
const (
	PathSeparator = "/"
	KeySeparator  = ":"
)

// Registry/role constants.
const (
	AnyValue          = "*"
	RemoveValuePrefix = "-"
	DefaultCategory   = "providers"
	CategoryProviders     = "providers"
	CategoryConsumers     = "consumers"
	CategoryRouters       = "routers"
	CategoryConfigurators = "configurators"
)

// Protocol names.
const (
	RegistryProtocol        = "registry"
	ServiceRegistryProtocol = "service-discovery-registry"
	DubboProtocol           = "dubbo"
	EmptyProtocol           = "empty"
)

// Cluster / load-balance names.
const (
	ClusterKeyFailover         = "failover"
	ClusterKeyFailfast         = "failfast"
	ClusterKeyFailsafe         = "failsafe"
	ClusterKeyFailback         = "failback"
	ClusterKeyForking          = "forking"
	ClusterKeyBroadcast        = "broadcast"
	ClusterKeyAvailable        = "available"
	ClusterKeyZoneAware        = "zone-aware"
	ClusterKeyAdaptiveService  = "adaptivesvc"

	LoadBalanceKeyRandom          = "random"
	LoadBalanceKeyRoundRobin      = "roundrobin"
	LoadBalanceKeyLeastActive     = "leastactive"
	LoadBalanceKeyConsistentHash  = "consistenthash"
	LoadBalanceKeyP2C             = "p2c"

	DefaultLoadBalance = LoadBalanceKeyRandom
	DefaultCluster     = ClusterKeyFailover
)

// Filter names.
const (
	ContextFilterKey      = "context"
	TimeoutFilterKey      = "timeout"
	TokenFilterKey        = "token"
	ExecuteLimitFilterKey = "execute-limit"
	TPSLimitFilterKey     = "tps-limit"
	AccessLogFilterKey    = "accesslog"
	GenericFilterName     = "generic"

	DefaultReferenceFilters = "context"
	DefaultServiceFilters   = "context,accesslog"
)

// Defaults pinned by spec.md.
const (
	DefaultWeight       int64 = 100
	DefaultNacosWeight        = 100
	MaxNacosWeight      int64 = 10000
	DefaultWarmup             = 10 * time.Minute
	DefaultHeartbeat          = 60 * time.Second
	DefaultHeartbeatTimeout   = 3 * DefaultHeartbeat
	DefaultRegTimeout         = "3s"
	ConsistentHashVNodes      = 160
	DefaultRetries            = 2
	DefaultForks        int64 = 2
	DefaultTimeout            = 3 * time.Second
	DefaultServerWorkers      = 64
	DefaultServerQueueSize    = 256
)

// Environment variable names (spec.md §6).
const (
	EnvDubboIPToBind       = "DUBBO_IP_TO_BIND"
	EnvDubboPortToBind     = "DUBBO_PORT_TO_BIND"
	EnvDubboIPToRegistry   = "DUBBO_IP_TO_REGISTRY"
	EnvDubboPortToRegistry = "DUBBO_PORT_TO_REGISTRY"
)

// Wire protocol constants (spec.md §6).
const (
	DubboMagic        uint16 = 0xDABB
	DubboHeaderLength        = 16

	FlagRequest  byte = 0x80
	FlagTwoWay   byte = 0x40
	FlagEvent    byte = 0x20
	SerialMask   byte = 0x1f

	RespStatusOK                      byte = 20
	RespStatusClientTimeout           byte = 30
	RespStatusServerTimeout           byte = 31
	RespStatusBadRequest              byte = 40
	RespStatusBadResponse             byte = 50
	RespStatusServiceNotFound         byte = 60
	RespStatusServiceError            byte = 70
	RespStatusServerError             byte = 80
	RespStatusClientError             byte = 90
	RespStatusServerThreadpoolExhausted byte = 100
)

// Serialization ids (spec.md §6).
const (
	SerialIDHessian2     byte = 2
	SerialIDJava         byte = 3
	SerialIDCompactJava  byte = 4
	SerialIDJSON         byte = 6
	SerialIDNativeJava   byte = 7
	SerialIDKryo         byte = 8
	SerialIDFST          byte = 9
)

const (
	Hessian2Serialization = "hessian2"
	JSONSerialization     = "json"
)

// Application defaults used by config package.
const (
	Version = "3.0.0-lite"
	PodNamespaceEnvKey  = "POD_NAMESPACE"
	DefaultNamespace    = "default"
	ClusterDomainKey    = "CLUSTER_DOMAIN"
	DefaultClusterDomain = "svc.cluster.local"
	SVC                 = ".svc."
	DefaultMeshPort     = 20000

	ReferenceConfigPrefix = "dubbo.reference."
	ServiceConfigPrefix   = "dubbo.service."

	NacosKey                   = "nacos"
	ZookeeperKey               = "zookeeper"
	ServiceDiscoveryDefaultGroup = "DEFAULT_GROUP"
	NacosGroupKey              = "nacos.group"
	NacosUsername              = "nacos.username"
	NacosPassword              = "nacos.password"
	NacosNamespaceID           = "nacos.namespace.id"
	// NacosURLMetadataKey is the ServiceInstance metadata key nacosRegistry
	// carries a registered provider URL's encoded form under, so Subscribe
	// can reconstruct it without a separate metadata-service round trip.
	NacosURLMetadataKey = "dubbo.url"

	ProvidedBy = "provided.by"

	NacosServiceNameSeparator = ":"
)

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

// Package dubbo implements the dubbo wire Protocol (spec.md §4.5):
// Export publishes a local service on a shared per-address getty server,
// Refer builds an Invoker that marshals calls onto a shared per-address
// getty client connection.
package dubbo

import (
	"context"
	"fmt"
	"time"

	"github.com/meshrpc/meshrpc/common"
	"github.com/meshrpc/meshrpc/common/constant"
	"github.com/meshrpc/meshrpc/common/extension"
	"github.com/meshrpc/meshrpc/protocol/base"
	"github.com/meshrpc/meshrpc/remoting/codec"
	"github.com/meshrpc/meshrpc/remoting/exchange"
)

// DubboInvoker sends one Invocation per call over exchangeClient's shared
// session, resolving a PendingResponse for each two-way call.
type DubboInvoker struct {
	*base.BaseInvoker
	exchangeClient *ExchangeClient
}

func newDubboInvoker(url *common.URL, exchangeClient *ExchangeClient) *DubboInvoker {
	return &DubboInvoker{
		BaseInvoker:    base.NewBaseInvoker(url),
		exchangeClient: exchangeClient,
	}
}

func (inv *DubboInvoker) Invoke(ctx context.Context, invocation base.Invocation) base.Result {
	result := &base.RPCResult{}
	if inv.IsDestroyed() {
		result.SetError(base.NewRPCError(base.ForbiddenError, "invoker destroyed"))
		return result
	}

	url := inv.GetURL()
	serialName := url.GetParam(constant.SerializationKey, constant.Hessian2Serialization)
	serialization, err := extension.GetSerialization(serialName)
	if err != nil {
		result.SetError(base.NewRPCError(base.SerializationError, err.Error()))
		return result
	}

	attachments := invocation.Attachments()
	attachments[constant.InterfaceKey] = url.Service()
	attachments[constant.GroupKey] = url.Group()
	attachments[constant.VersionKey] = url.Version()

	callArgs := invocationPayload{
		Method:         invocation.MethodName(),
		ParameterTypes: invocation.ParameterTypes(),
		Arguments:      invocation.Arguments(),
		Attachments:    attachments,
	}
	body, err := serialization.Marshal(callArgs)
	if err != nil {
		result.SetError(base.NewRPCError(base.SerializationError, err.Error()))
		return result
	}

	timeout := url.GetMethodParamDuration(invocation.MethodName(), constant.TimeoutKey, 3*time.Second)
	req := exchange.NewRequest(constant.Version)
	serialID := serialIDFor(serialName)

	respCh, err := inv.exchangeClient.Request(ctx, req, codec.Header{
		IsRequest: true,
		TwoWay:    true,
		SerialID:  serialID,
		RequestID: req.ID,
	}, body, timeout)
	if err != nil {
		result.SetError(base.NewRPCError(base.NetworkError, err.Error()))
		return result
	}

	select {
	case resp := <-respCh:
		if resp.Error != nil {
			kind := base.NetworkError
			if resp.Status == constant.RespStatusClientTimeout || resp.Status == constant.RespStatusServerTimeout {
				kind = base.TimeoutError
			}
			result.SetError(base.NewRPCError(kind, resp.Error.Error()))
			return result
		}
		if resp.Status != constant.RespStatusOK {
			result.SetError(base.NewRPCError(statusKind(resp.Status), fmt.Sprintf("remote returned status %d", resp.Status)))
			return result
		}

		var reply wireReply
		if err := serialization.Unmarshal(resp.Result.([]byte), &reply); err != nil {
			result.SetError(base.NewRPCError(base.SerializationError, err.Error()))
			return result
		}
		if reply.BizError != "" {
			result.SetError(base.NewBizError(reply.Value, reply.BizError))
			return result
		}
		result.SetResult(reply.Value)
		result.SetAttachments(reply.Attachments)
		return result
	case <-ctx.Done():
		result.SetError(base.NewRPCError(base.TimeoutError, "call cancelled: "+ctx.Err().Error()))
		return result
	}
}

func statusKind(status byte) base.ErrorKind {
	switch status {
	case constant.RespStatusServiceNotFound:
		return base.UnknownError
	case constant.RespStatusServerThreadpoolExhausted:
		return base.LimitExceededError
	default:
		return base.NetworkError
	}
}

func serialIDFor(name string) byte {
	switch name {
	case constant.JSONSerialization:
		return constant.SerialIDJSON
	default:
		return constant.SerialIDHessian2
	}
}

// invocationPayload is the wire body of a dubbo request (spec.md §6 "body
// carries method name, parameter types, arguments, attachments").
type invocationPayload struct {
	Method         string
	ParameterTypes []string
	Arguments      []any
	Attachments    map[string]string
}

// wireReply is the wire body of a dubbo response.
type wireReply struct {
	Value       any
	BizError    string
	Attachments map[string]string
}

// Package service exposes the finance and planner stores over Connect.
//
// Messages are plain Go structs carried by JSONCodec; there is no generated
// protobuf code. Every write made through the RPC surface is a user write.
package service

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
)

const (
	FinanceServiceName = "leora.v1.FinanceService"
	PlannerServiceName = "leora.v1.PlannerService"
)

// Empty is the request and response of calls that carry nothing.
type Empty struct{}

// IDRequest addresses one entity.
type IDRequest struct {
	ID string `json:"id"`
}

// ArchiveRequest toggles the archived flag of an entity.
type ArchiveRequest struct {
	ID       string `json:"id"`
	Archived bool   `json:"archived"`
}

// procedures collects the unary handlers of one service.
type procedures struct {
	service string
	mux     *http.ServeMux
	opts    []connect.HandlerOption
}

func newProcedures(service string, opts []connect.HandlerOption) *procedures {
	return &procedures{
		service: service,
		mux:     http.NewServeMux(),
		opts:    append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...),
	}
}

// path is the mount point of the service, e.g. "/leora.v1.FinanceService/".
func (p *procedures) path() string {
	return "/" + p.service + "/"
}

// unary registers method as /<service>/<method>. Store errors are mapped to
// Connect codes.
func unary[Req, Res any](p *procedures, method string, fn func(context.Context, *Req) (*Res, error)) {
	procedure := p.path() + method
	p.mux.Handle(procedure, connect.NewUnaryHandler(procedure,
		func(ctx context.Context, req *connect.Request[Req]) (*connect.Response[Res], error) {
			res, err := fn(ctx, req.Msg)
			if err != nil {
				return nil, toConnectError(err)
			}
			return connect.NewResponse(res), nil
		},
		p.opts...,
	))
}

// Procedure returns the full procedure name of a method, for clients.
func Procedure(service, method string) string {
	return "/" + service + "/" + method
}

// Package apiconnect wires the splitchat.v1.SplitService messages in package
// api to Connect handlers and clients.
package apiconnect

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitchat/pkg/api"
)

// SplitServiceName is the fully-qualified name of the SplitService service.
const SplitServiceName = "splitchat.v1.SplitService"

// Procedure paths of the SplitService RPCs.
const (
	SplitServiceCreateSessionProcedure = "/splitchat.v1.SplitService/CreateSession"
	SplitServiceGetSessionProcedure    = "/splitchat.v1.SplitService/GetSession"
	SplitServiceSubmitReceiptProcedure = "/splitchat.v1.SplitService/SubmitReceipt"
	SplitServiceSendMessageProcedure   = "/splitchat.v1.SplitService/SendMessage"
	SplitServiceDropItemProcedure      = "/splitchat.v1.SplitService/DropItem"
	SplitServiceSetCurrencyProcedure   = "/splitchat.v1.SplitService/SetCurrency"
)

// SplitServiceClient is a client for the splitchat.v1.SplitService service.
type SplitServiceClient interface {
	CreateSession(context.Context, *connect.Request[api.CreateSessionRequest]) (*connect.Response[api.SessionResponse], error)
	GetSession(context.Context, *connect.Request[api.GetSessionRequest]) (*connect.Response[api.SessionResponse], error)
	SubmitReceipt(context.Context, *connect.Request[api.SubmitReceiptRequest]) (*connect.Response[api.SessionResponse], error)
	SendMessage(context.Context, *connect.Request[api.SendMessageRequest]) (*connect.Response[api.SessionResponse], error)
	DropItem(context.Context, *connect.Request[api.DropItemRequest]) (*connect.Response[api.SessionResponse], error)
	SetCurrency(context.Context, *connect.Request[api.SetCurrencyRequest]) (*connect.Response[api.SessionResponse], error)
}

// NewSplitServiceClient constructs a client for the splitchat.v1.SplitService
// service. The JSON codec is always used.
func NewSplitServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) SplitServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{WithJSON()}, opts...)
	return &splitServiceClient{
		createSession: connect.NewClient[api.CreateSessionRequest, api.SessionResponse](httpClient, baseURL+SplitServiceCreateSessionProcedure, opts...),
		getSession:    connect.NewClient[api.GetSessionRequest, api.SessionResponse](httpClient, baseURL+SplitServiceGetSessionProcedure, opts...),
		submitReceipt: connect.NewClient[api.SubmitReceiptRequest, api.SessionResponse](httpClient, baseURL+SplitServiceSubmitReceiptProcedure, opts...),
		sendMessage:   connect.NewClient[api.SendMessageRequest, api.SessionResponse](httpClient, baseURL+SplitServiceSendMessageProcedure, opts...),
		dropItem:      connect.NewClient[api.DropItemRequest, api.SessionResponse](httpClient, baseURL+SplitServiceDropItemProcedure, opts...),
		setCurrency:   connect.NewClient[api.SetCurrencyRequest, api.SessionResponse](httpClient, baseURL+SplitServiceSetCurrencyProcedure, opts...),
	}
}

type splitServiceClient struct {
	createSession *connect.Client[api.CreateSessionRequest, api.SessionResponse]
	getSession    *connect.Client[api.GetSessionRequest, api.SessionResponse]
	submitReceipt *connect.Client[api.SubmitReceiptRequest, api.SessionResponse]
	sendMessage   *connect.Client[api.SendMessageRequest, api.SessionResponse]
	dropItem      *connect.Client[api.DropItemRequest, api.SessionResponse]
	setCurrency   *connect.Client[api.SetCurrencyRequest, api.SessionResponse]
}

func (c *splitServiceClient) CreateSession(ctx context.Context, req *connect.Request[api.CreateSessionRequest]) (*connect.Response[api.SessionResponse], error) {
	return c.createSession.CallUnary(ctx, req)
}

func (c *splitServiceClient) GetSession(ctx context.Context, req *connect.Request[api.GetSessionRequest]) (*connect.Response[api.SessionResponse], error) {
	return c.getSession.CallUnary(ctx, req)
}

func (c *splitServiceClient) SubmitReceipt(ctx context.Context, req *connect.Request[api.SubmitReceiptRequest]) (*connect.Response[api.SessionResponse], error) {
	return c.submitReceipt.CallUnary(ctx, req)
}

func (c *splitServiceClient) SendMessage(ctx context.Context, req *connect.Request[api.SendMessageRequest]) (*connect.Response[api.SessionResponse], error) {
	return c.sendMessage.CallUnary(ctx, req)
}

func (c *splitServiceClient) DropItem(ctx context.Context, req *connect.Request[api.DropItemRequest]) (*connect.Response[api.SessionResponse], error) {
	return c.dropItem.CallUnary(ctx, req)
}

func (c *splitServiceClient) SetCurrency(ctx context.Context, req *connect.Request[api.SetCurrencyRequest]) (*connect.Response[api.SessionResponse], error) {
	return c.setCurrency.CallUnary(ctx, req)
}

// SplitServiceHandler is an implementation of the splitchat.v1.SplitService
// service.
type SplitServiceHandler interface {
	CreateSession(context.Context, *connect.Request[api.CreateSessionRequest]) (*connect.Response[api.SessionResponse], error)
	GetSession(context.Context, *connect.Request[api.GetSessionRequest]) (*connect.Response[api.SessionResponse], error)
	SubmitReceipt(context.Context, *connect.Request[api.SubmitReceiptRequest]) (*connect.Response[api.SessionResponse], error)
	SendMessage(context.Context, *connect.Request[api.SendMessageRequest]) (*connect.Response[api.SessionResponse], error)
	DropItem(context.Context, *connect.Request[api.DropItemRequest]) (*connect.Response[api.SessionResponse], error)
	SetCurrency(context.Context, *connect.Request[api.SetCurrencyRequest]) (*connect.Response[api.SessionResponse], error)
}

// NewSplitServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself.
func NewSplitServiceHandler(svc SplitServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)
	createSession := connect.NewUnaryHandler(SplitServiceCreateSessionProcedure, svc.CreateSession, opts...)
	getSession := connect.NewUnaryHandler(SplitServiceGetSessionProcedure, svc.GetSession, opts...)
	submitReceipt := connect.NewUnaryHandler(SplitServiceSubmitReceiptProcedure, svc.SubmitReceipt, opts...)
	sendMessage := connect.NewUnaryHandler(SplitServiceSendMessageProcedure, svc.SendMessage, opts...)
	dropItem := connect.NewUnaryHandler(SplitServiceDropItemProcedure, svc.DropItem, opts...)
	setCurrency := connect.NewUnaryHandler(SplitServiceSetCurrencyProcedure, svc.SetCurrency, opts...)
	return "/splitchat.v1.SplitService/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case SplitServiceCreateSessionProcedure:
			createSession.ServeHTTP(w, r)
		case SplitServiceGetSessionProcedure:
			getSession.ServeHTTP(w, r)
		case SplitServiceSubmitReceiptProcedure:
			submitReceipt.ServeHTTP(w, r)
		case SplitServiceSendMessageProcedure:
			sendMessage.ServeHTTP(w, r)
		case SplitServiceDropItemProcedure:
			dropItem.ServeHTTP(w, r)
		case SplitServiceSetCurrencyProcedure:
			setCurrency.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// UnimplementedSplitServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedSplitServiceHandler struct{}

func (UnimplementedSplitServiceHandler) CreateSession(context.Context, *connect.Request[api.CreateSessionRequest]) (*connect.Response[api.SessionResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitchat.v1.SplitService.CreateSession is not implemented"))
}

func (UnimplementedSplitServiceHandler) GetSession(context.Context, *connect.Request[api.GetSessionRequest]) (*connect.Response[api.SessionResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitchat.v1.SplitService.GetSession is not implemented"))
}

func (UnimplementedSplitServiceHandler) SubmitReceipt(context.Context, *connect.Request[api.SubmitReceiptRequest]) (*connect.Response[api.SessionResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitchat.v1.SplitService.SubmitReceipt is not implemented"))
}

func (UnimplementedSplitServiceHandler) SendMessage(context.Context, *connect.Request[api.SendMessageRequest]) (*connect.Response[api.SessionResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitchat.v1.SplitService.SendMessage is not implemented"))
}

func (UnimplementedSplitServiceHandler) DropItem(context.Context, *connect.Request[api.DropItemRequest]) (*connect.Response[api.SessionResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitchat.v1.SplitService.DropItem is not implemented"))
}

func (UnimplementedSplitServiceHandler) SetCurrency(context.Context, *connect.Request[api.SetCurrencyRequest]) (*connect.Response[api.SessionResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitchat.v1.SplitService.SetCurrency is not implemented"))
}

package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	internalorders "github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/payments"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
)

type stubOrdersService struct {
	createInput  internalorders.CreateOrderInput
	listParams   internalorders.ListParams
	cancelReason *string
	statusInput  internalorders.StatusUpdateInput
	refundInput  internalorders.RefundInput
	gotID        uuid.UUID
	err          error
}

func (s *stubOrdersService) Create(_ context.Context, _ types.Actor, input internalorders.CreateOrderInput) (*internalorders.CreateResult, error) {
	s.createInput = input
	if s.err != nil {
		return nil, s.err
	}
	return &internalorders.CreateResult{Success: true, Order: &internalorders.OrderView{ID: uuid.New(), Currency: input.Currency}}, nil
}

func (s *stubOrdersService) List(_ context.Context, _ types.Actor, params internalorders.ListParams) (*internalorders.ListResult, error) {
	s.listParams = params
	return &internalorders.ListResult{}, s.err
}

func (s *stubOrdersService) Get(_ context.Context, _ types.Actor, id uuid.UUID) (*internalorders.OrderView, error) {
	s.gotID = id
	if s.err != nil {
		return nil, s.err
	}
	return &internalorders.OrderView{ID: id}, nil
}

func (s *stubOrdersService) Cancel(_ context.Context, _ types.Actor, id uuid.UUID, reason *string) (*internalorders.OrderView, error) {
	s.gotID, s.cancelReason = id, reason
	return &internalorders.OrderView{ID: id, Status: enums.OrderStatusCancelled}, s.err
}

func (s *stubOrdersService) RequestReturn(_ context.Context, _ types.Actor, id uuid.UUID, _ *string) (*internalorders.OrderView, error) {
	return &internalorders.OrderView{ID: id}, s.err
}

func (s *stubOrdersService) UpdateStatus(_ context.Context, _ types.Actor, id uuid.UUID, input internalorders.StatusUpdateInput) (*internalorders.OrderView, error) {
	s.statusInput = input
	return &internalorders.OrderView{ID: id, Status: input.Status}, s.err
}

func (s *stubOrdersService) Track(context.Context, types.Actor, uuid.UUID) (*internalorders.TrackingResult, error) {
	return &internalorders.TrackingResult{}, s.err
}

func (s *stubOrdersService) Invoice(context.Context, types.Actor, uuid.UUID) (*internalorders.Invoice, error) {
	return &internalorders.Invoice{}, s.err
}

func (s *stubOrdersService) ShippingLabel(context.Context, types.Actor, uuid.UUID) (*internalorders.ShippingLabel, error) {
	return &internalorders.ShippingLabel{}, s.err
}

func (s *stubOrdersService) ApplyPaymentUpdate(context.Context, internalorders.PaymentUpdate) (*internalorders.OrderView, error) {
	panic("not implemented")
}

func (s *stubOrdersService) Refund(_ context.Context, _ types.Actor, id uuid.UUID, input internalorders.RefundInput) (*internalorders.OrderView, error) {
	s.refundInput = input
	return &internalorders.OrderView{ID: id}, s.err
}

func (s *stubOrdersService) AttachPaymentIntent(context.Context, types.Actor, uuid.UUID) (*payments.Intent, error) {
	panic("not implemented")
}

var customer = types.Actor{UserID: uuid.New(), Role: enums.UserRoleCustomer}

func authed(req *http.Request, actor types.Actor) *http.Request {
	return req.WithContext(middleware.WithActor(req.Context(), actor))
}

func createRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body))
	return authed(req, customer)
}

const createBody = `{"items":[{"productId":"6f1c9a8e-2a51-4f43-9d2b-3c1f4d0b7a11","quantity":2}],"shippingAddress":{"fullName":"Jane Doe","address":"1 Main St","city":"Springfield"},"paymentMethod":"card","currency":"eur"}`

func TestCreateUsesBodyCurrencyWithoutHeader(t *testing.T) {
	svc := &stubOrdersService{}
	resp := httptest.NewRecorder()
	Create(svc, nil).ServeHTTP(resp, createRequest(createBody))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d (%s)", resp.Code, resp.Body.String())
	}
	if svc.createInput.Currency != "eur" {
		t.Fatalf("expected body currency, got %q", svc.createInput.Currency)
	}
	if len(svc.createInput.Items) != 1 || svc.createInput.Items[0].Quantity != 2 {
		t.Fatalf("unexpected items %+v", svc.createInput.Items)
	}
	if svc.createInput.ShippingAddress == nil || svc.createInput.ShippingAddress.City != "Springfield" {
		t.Fatalf("shipping address not forwarded")
	}
}

func TestCreateHeaderCurrencyWinsOverBody(t *testing.T) {
	svc := &stubOrdersService{}
	req := createRequest(createBody)
	req = req.WithContext(middleware.WithCurrency(req.Context(), enums.CurrencyUSD))

	resp := httptest.NewRecorder()
	Create(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if svc.createInput.Currency != enums.CurrencyUSD {
		t.Fatalf("expected header currency, got %q", svc.createInput.Currency)
	}
}

func TestCreateForwardsClientExchangeRate(t *testing.T) {
	svc := &stubOrdersService{err: pkgerrors.New(pkgerrors.CodeValidation, "Exchange rate cannot be provided by client")}
	body := `{"paymentMethod":"card","exchangeRate":null}`

	resp := httptest.NewRecorder()
	Create(svc, nil).ServeHTTP(resp, createRequest(body))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if len(svc.createInput.ExchangeRate) == 0 {
		t.Fatalf("expected exchangeRate presence to reach the service")
	}
}

func TestCreateRejectsUnknownFieldsAndAnonymous(t *testing.T) {
	svc := &stubOrdersService{}

	resp := httptest.NewRecorder()
	Create(svc, nil).ServeHTTP(resp, createRequest(`{"paymentMethod":"card","total":1}`))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", resp.Code)
	}

	anon := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(createBody))
	resp = httptest.NewRecorder()
	Create(svc, nil).ServeHTTP(resp, anon)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestListParsesFilters(t *testing.T) {
	svc := &stubOrdersService{}
	req := authed(httptest.NewRequest(http.MethodGet, "/api/orders?status=shipped&limit=5&cursor=abc", nil), customer)

	resp := httptest.NewRecorder()
	List(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.listParams.Status == nil || *svc.listParams.Status != enums.OrderStatusShipped {
		t.Fatalf("status filter not parsed: %+v", svc.listParams)
	}
	if svc.listParams.Limit != 5 || svc.listParams.Cursor != "abc" {
		t.Fatalf("unexpected params %+v", svc.listParams)
	}

	bad := authed(httptest.NewRequest(http.MethodGet, "/api/orders?status=lost", nil), customer)
	resp = httptest.NewRecorder()
	List(svc, nil).ServeHTTP(resp, bad)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad status, got %d", resp.Code)
	}
}

func TestDetailValidatesOrderID(t *testing.T) {
	svc := &stubOrdersService{}
	req := authed(httptest.NewRequest(http.MethodGet, "/api/orders/nope", nil), customer)
	req = controllers.WithURLParam(req, "orderId", "nope")

	resp := httptest.NewRecorder()
	Detail(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}

	id := uuid.New()
	req = authed(httptest.NewRequest(http.MethodGet, "/api/orders/"+id.String(), nil), customer)
	req = controllers.WithURLParam(req, "orderId", id.String())
	resp = httptest.NewRecorder()
	Detail(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK || svc.gotID != id {
		t.Fatalf("expected 200 for %s, got %d", id, resp.Code)
	}
}

func TestDetailNotFound(t *testing.T) {
	svc := &stubOrdersService{err: pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")}
	id := uuid.New()
	req := authed(httptest.NewRequest(http.MethodGet, "/api/orders/"+id.String(), nil), customer)
	req = controllers.WithURLParam(req, "orderId", id.String())

	resp := httptest.NewRecorder()
	Detail(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestCancelAcceptsEmptyAndReasonBodies(t *testing.T) {
	svc := &stubOrdersService{}
	id := uuid.New()

	req := authed(httptest.NewRequest(http.MethodPut, "/api/orders/"+id.String()+"/cancel", nil), customer)
	req = controllers.WithURLParam(req, "orderId", id.String())
	resp := httptest.NewRecorder()
	Cancel(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK || svc.cancelReason != nil {
		t.Fatalf("expected 200 without reason, got %d %v", resp.Code, svc.cancelReason)
	}

	req = authed(httptest.NewRequest(http.MethodPut, "/api/orders/"+id.String()+"/cancel", strings.NewReader(`{"reason":"  changed my mind "}`)), customer)
	req = controllers.WithURLParam(req, "orderId", id.String())
	resp = httptest.NewRecorder()
	Cancel(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK || svc.cancelReason == nil || *svc.cancelReason != "changed my mind" {
		t.Fatalf("expected trimmed reason, got %d %v", resp.Code, svc.cancelReason)
	}

	var envelope struct {
		Data internalorders.OrderView `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Status != enums.OrderStatusCancelled {
		t.Fatalf("unexpected status %s", envelope.Data.Status)
	}
}

func TestAdminUpdateStatus(t *testing.T) {
	svc := &stubOrdersService{}
	admin := types.Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}
	id := uuid.New()

	body := `{"status":"shipped","trackingNumber":" 1Z999 ","carrier":"UPS"}`
	req := authed(httptest.NewRequest(http.MethodPut, "/api/admin/orders/"+id.String()+"/status", strings.NewReader(body)), admin)
	req = controllers.WithURLParam(req, "orderId", id.String())
	resp := httptest.NewRecorder()
	AdminUpdateStatus(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", resp.Code, resp.Body.String())
	}
	if svc.statusInput.Status != enums.OrderStatusShipped || *svc.statusInput.TrackingNumber != "1Z999" {
		t.Fatalf("unexpected status input %+v", svc.statusInput)
	}

	req = authed(httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"status":"teleported"}`)), admin)
	req = controllers.WithURLParam(req, "orderId", id.String())
	resp = httptest.NewRecorder()
	AdminUpdateStatus(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminRefundParsesAmount(t *testing.T) {
	svc := &stubOrdersService{}
	admin := types.Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}
	id := uuid.New()

	req := authed(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":"12.50","reason":"damaged"}`)), admin)
	req = controllers.WithURLParam(req, "orderId", id.String())
	resp := httptest.NewRecorder()
	AdminRefund(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", resp.Code, resp.Body.String())
	}
	if svc.refundInput.Amount == nil || svc.refundInput.Amount.String() != "12.5" || svc.refundInput.Reason != "damaged" {
		t.Fatalf("unexpected refund input %+v", svc.refundInput)
	}
}

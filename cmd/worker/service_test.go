package main

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type pingStub struct{ err error }

func (p pingStub) Ping(context.Context) error { return p.err }

type runStub struct {
	err   error
	calls int
}

func (r *runStub) Run(context.Context) error {
	r.calls++
	return r.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "worker-test", Output: io.Discard})
}

func TestServiceStopsOnFailedPing(t *testing.T) {
	consumer := &runStub{}
	svc, err := NewService(ServiceParams{
		Logger:       testLogger(),
		DB:           pingStub{},
		Redis:        pingStub{err: errors.New("down")},
		PubSub:       pingStub{},
		Notification: consumer,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if err := svc.Run(context.Background()); err == nil {
		t.Fatalf("expected readiness error")
	}
	if consumer.calls != 0 {
		t.Fatalf("consumer should not start when redis is down")
	}
}

func TestServiceTreatsCancelAsCleanExit(t *testing.T) {
	consumer := &runStub{err: context.Canceled}
	svc, err := NewService(ServiceParams{
		Logger:       testLogger(),
		DB:           pingStub{},
		Redis:        pingStub{},
		PubSub:       pingStub{},
		Notification: consumer,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if err := svc.Run(context.Background()); err != nil {
		t.Fatalf("expected clean exit, got %v", err)
	}

	consumer.err = errors.New("receive failed")
	if err := svc.Run(context.Background()); err == nil {
		t.Fatalf("expected consumer error to surface")
	}
}

func TestNewServiceRequiresConsumer(t *testing.T) {
	if _, err := NewService(ServiceParams{Logger: testLogger(), DB: pingStub{}, Redis: pingStub{}, PubSub: pingStub{}}); err == nil {
		t.Fatalf("expected error without consumer")
	}
}

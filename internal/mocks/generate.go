// Package mocks provides gomock mocks of the relay's ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	provider := mocks.NewMockProvider(ctrl)
//	provider.EXPECT().Exchange(gomock.Any(), "code", gomock.Any(), gomock.Any()).Return(handshake, nil)
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=provider_mock.go github.com/jrsteele09/go-session-relay/handshake Provider

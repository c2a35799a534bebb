package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/swatch/internal/app"
	"go.trai.ch/swatch/internal/core/domain"
	"go.trai.ch/swatch/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func provide(t *testing.T) (ComponentProvider, *mocks.MockConfigLoader, *mocks.MockLogger) {
	t.Helper()
	ctrl := gomock.NewController(t)
	loader := mocks.NewMockConfigLoader(ctrl)
	logger := mocks.NewMockLogger(ctrl)

	a := app.New(loader, nil, nil, nil, nil, nil, nil, logger)
	return func(context.Context) (*app.Components, error) {
		return &app.Components{App: a, Logger: logger}, nil
	}, loader, logger
}

func TestRun_Version(t *testing.T) {
	provider, _, _ := provide(t)
	stdout := new(bytes.Buffer)

	code := run(t.Context(), []string{"version"}, stdout, new(bytes.Buffer), provider)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "swatch version")
}

func TestRun_ConfigErrorIsLogged(t *testing.T) {
	provider, loader, logger := provide(t)
	loader.EXPECT().Load(gomock.Any(), gomock.Any()).Return(nil, domain.ErrCycleDetected)
	logger.EXPECT().Error(domain.ErrCycleDetected)

	code := run(t.Context(), []string{"build"}, new(bytes.Buffer), new(bytes.Buffer), provider)
	assert.Equal(t, 1, code)
}

func TestRun_ProviderError(t *testing.T) {
	stderr := new(bytes.Buffer)
	code := run(t.Context(), nil, new(bytes.Buffer), stderr, func(context.Context) (*app.Components, error) {
		return nil, errors.New("node adapter.logger failed")
	})
	assert.Equal(t, 1, code)
	assert.Equal(t, "Error: node adapter.logger failed\n", stderr.String())
}

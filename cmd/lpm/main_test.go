package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/lpm/internal/app"
	"go.trai.ch/lpm/internal/core/domain"
	"go.trai.ch/lpm/internal/core/ports/mocks"
	"go.trai.ch/lpm/internal/engine/installer"
	"go.trai.ch/lpm/internal/engine/planner"
	"go.trai.ch/lpm/internal/engine/resolver"
	"go.uber.org/mock/gomock"
)

func newApplication(ctrl *gomock.Controller, loader *mocks.MockConfigLoader, log *mocks.MockLogger) *app.App {
	registry := mocks.NewMockRegistryClient(ctrl)
	return app.New(
		loader,
		registry,
		resolver.New(registry, log),
		planner.New(),
		installer.New(mocks.NewMockTarballStore(ctrl), mocks.NewMockExtractor(ctrl), mocks.NewMockHasher(ctrl)),
		mocks.NewMockLockfileStore(ctrl),
		log,
	)
}

// TestRun_Success verifies that the run function returns 0 when the command succeeds.
func TestRun_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLogger := mocks.NewMockLogger(ctrl)
	application := newApplication(ctrl, mocks.NewMockConfigLoader(ctrl), mockLogger)

	provider := func(_ context.Context) (*app.Components, func(), error) {
		return &app.Components{
			App:    application,
			Logger: mockLogger,
		}, func() {}, nil
	}

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, stderr, provider)
	assert.Equal(t, 0, exitCode)
}

// TestRun_InitializationError verifies that run returns 1 when component initialization fails.
func TestRun_InitializationError(t *testing.T) {
	provider := func(_ context.Context) (*app.Components, func(), error) {
		return nil, nil, errors.New("init failed")
	}

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, stderr, provider)

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr.String(), "Error: init failed")
}

// TestRun_ExecutionError verifies that run returns 1 and logs when the command fails.
func TestRun_ExecutionError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	root := t.TempDir()
	mockLoader := mocks.NewMockConfigLoader(ctrl)
	mockLoader.EXPECT().LoadSettings(root).Return(domain.Settings{}, domain.ErrConfigParseFailed)

	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Error(gomock.Any()).Do(func(err error) {
		assert.ErrorIs(t, err, domain.ErrConfigParseFailed)
	})

	application := newApplication(ctrl, mockLoader, mockLogger)
	provider := func(_ context.Context) (*app.Components, func(), error) {
		return &app.Components{App: application, Logger: mockLogger}, func() {}, nil
	}

	exitCode := run(context.Background(), []string{"install"}, io.Discard, provider, func(a *app.App) {
		a.WithRoot(root)
	})

	assert.Equal(t, 1, exitCode)
}

// TestRun_Signal verifies that the context is canceled on signal.
func TestRun_Signal(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	blockCh := make(chan struct{})

	mockLoader := mocks.NewMockConfigLoader(ctrl)
	mockLoader.EXPECT().LoadSettings(gomock.Any()).DoAndReturn(func(_ string) (domain.Settings, error) {
		select {
		case <-blockCh:
			return domain.Settings{}, context.Canceled
		case <-time.After(5 * time.Second):
			return domain.Settings{}, errors.New("timeout in mock")
		}
	})

	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Error(gomock.Any()).AnyTimes()

	application := newApplication(ctrl, mockLoader, mockLogger)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan int)

	go func() {
		errCh <- run(ctx, []string{"install"}, io.Discard, func(context.Context) (*app.Components, func(), error) {
			return &app.Components{App: application, Logger: mockLogger}, func() {}, nil
		})
	}()

	// Wait a bit to ensure run() reaches LoadSettings()
	time.Sleep(100 * time.Millisecond)

	cancel()
	close(blockCh)

	select {
	case ret := <-errCh:
		assert.NotEqual(t, 0, ret)
	case <-time.After(2 * time.Second):
		t.Fatal("TestRun_Signal timed out waiting for run() to return")
	}
}

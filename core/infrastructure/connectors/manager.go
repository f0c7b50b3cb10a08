package connectors

import (
	"context"
	"sync"

	"github.com/hyperterse/dbmcp/core/domain/interfaces"
	"github.com/hyperterse/dbmcp/core/infrastructure/dsn"
	"github.com/hyperterse/dbmcp/core/infrastructure/logging"
	apperrors "github.com/hyperterse/dbmcp/core/shared/errors"
)

// ConnectorManager implements the ConnectorManager interface. It holds at
// most one connector, installed once by the composition root.
type ConnectorManager struct {
	mu      sync.RWMutex
	current interfaces.Connector
	factory func(dialectDSN string) (interfaces.Connector, error)
}

// NewConnectorManager creates an empty ConnectorManager
func NewConnectorManager() *ConnectorManager {
	return &ConnectorManager{factory: connectorForDSN}
}

func connectorForDSN(raw string) (interfaces.Connector, error) {
	dialect, err := dsn.DialectOf(raw)
	if err != nil {
		return nil, err
	}
	return New(dialect)
}

// ConnectWithDSN resolves the dialect from the DSN scheme, parses it with the
// dialect's parser, connects and installs the connector. On any failure
// nothing is installed.
func (m *ConnectorManager) ConnectWithDSN(ctx context.Context, raw string) error {
	log := logging.New("connector")

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		return apperrors.NewAppError(apperrors.ErrCodeInternalError, "a connector is already installed", nil)
	}

	conn, err := m.factory(raw)
	if err != nil {
		return err
	}
	cfg, err := conn.Parser().Parse(raw)
	if err != nil {
		return err
	}

	log.Infof("Connecting to %s at %s", conn.Name(), dsn.Redact(raw))
	if err := conn.Connect(ctx, cfg); err != nil {
		return err
	}

	m.current = conn
	log.Debugf("%s connector installed", conn.Name())
	return nil
}

// Current returns the installed connector. Calling it before a successful
// ConnectWithDSN panics.
func (m *ConnectorManager) Current() interfaces.Connector {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		panic("connectors: Current called before a connector was installed")
	}
	return m.current
}

// Disconnect tears down the installed connector. It is a no-op when nothing
// is installed.
func (m *ConnectorManager) Disconnect() error {
	m.mu.Lock()
	conn := m.current
	m.current = nil
	m.mu.Unlock()

	if conn == nil {
		return nil
	}
	logging.New("connector").Debugf("Disconnecting %s connector", conn.Name())
	return conn.Disconnect()
}

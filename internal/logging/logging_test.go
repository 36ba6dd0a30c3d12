package logging_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/gipsh/emerald-signer/internal/logging"
)

func TestInitSetsLevelByVerbosity(t *testing.T) {
	logging.Init(0)
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())

	logging.Init(1)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	logging.Init(3)
	assert.Equal(t, zerolog.TraceLevel, zerolog.GlobalLevel())
}

func TestComponentTagsLogger(t *testing.T) {
	logging.Init(0)
	l := logging.Component("keystore")
	assert.NotNil(t, l.Info())
}

package sura

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TeoEchavarria/sura-automatization-reschedule/flow"
	"github.com/TeoEchavarria/sura-automatization-reschedule/pipeline"
)

var testParams = map[string]string{
	ParamDocumentType: "C",
	ParamDocument:     "1020304050",
	ParamPIN:          "1204",
}

func buildAll(t *testing.T) []flow.Block {
	t.Helper()
	var blocks []flow.Block
	for _, load := range []func() (*flow.Definition, error){LoginFlow, AppointmentsFlow, RescheduleFlow} {
		def, err := load()
		require.NoError(t, err)
		built, err := def.Build(testParams)
		require.NoError(t, err)
		blocks = append(blocks, built...)
	}
	return blocks
}

func TestEmbeddedFlowsCompile(t *testing.T) {
	d := pipeline.NewDispatcher()
	for _, b := range buildAll(t) {
		_, err := d.CompileAll(b.Actions)
		assert.NoError(t, err, b.Name)
	}
}

func TestLoginFlowShape(t *testing.T) {
	def, err := LoginFlow()
	require.NoError(t, err)
	require.Len(t, def.Blocks, 1)

	built, err := def.Build(testParams)
	require.NoError(t, err)
	actions := built[0].Actions
	require.Len(t, actions, 8)

	assert.Equal(t, pipeline.ActionSelectOption, actions[2].Kind)
	assert.Equal(t, "C", actions[2].Payload)
	assert.Equal(t, "1020304050", actions[3].Payload)
	assert.Equal(t, pipeline.ActionCompositePress, actions[5].Kind)
	assert.Equal(t, "1204", actions[5].Payload)
	assert.Contains(t, actions[5].Locator.Path, "%s")
	assert.Equal(t, pipeline.ActionCompositeAccept, actions[6].Kind)
	assert.Equal(t, "session-internet", actions[7].Locator.Path)
}

func TestAppointmentFlowsEndInExtractions(t *testing.T) {
	appts, err := AppointmentsFlow()
	require.NoError(t, err)
	built, err := appts.Build(testParams)
	require.NoError(t, err)
	last := built[0].Actions[len(built[0].Actions)-1]
	assert.Equal(t, pipeline.ActionExtractStructured, last.Kind)
	assert.Equal(t, "div.tarjetaCita__fecha", last.Locator.Path)

	resched, err := RescheduleFlow()
	require.NoError(t, err)
	built, err = resched.Build(testParams)
	require.NoError(t, err)
	last = built[0].Actions[len(built[0].Actions)-1]
	assert.Equal(t, pipeline.ActionExtractAttrOrText, last.Kind)
}

func TestConfigValidate(t *testing.T) {
	valid := Config{DocumentNumber: "1020304050", KeypadPIN: "1204"}
	assert.NoError(t, valid.Validate())

	assert.Error(t, Config{KeypadPIN: "1204"}.Validate())
	assert.Error(t, Config{DocumentNumber: "1"}.Validate())
	assert.Error(t, Config{DocumentNumber: "1", KeypadPIN: "12a4"}.Validate())
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("CC", "9988")
	t.Setenv("PASSWORD", "4321")
	t.Setenv("HEADLESS", "false")
	t.Setenv("SURA_DOCUMENT_TYPE", "P")
	t.Setenv("DOWNLOAD_DIR", "/tmp/dl")

	cfg := ConfigFromEnv()
	assert.Equal(t, "9988", cfg.DocumentNumber)
	assert.Equal(t, "4321", cfg.KeypadPIN)
	assert.False(t, cfg.Headless)
	assert.Equal(t, "P", cfg.DocumentType)
	assert.Equal(t, "/tmp/dl", cfg.DownloadDir)

	assert.Equal(t, "P", cfg.params()[ParamDocumentType])
}

func TestDefaultDocumentType(t *testing.T) {
	cfg := Config{DocumentNumber: "1", KeypadPIN: "2"}
	assert.Equal(t, "C", cfg.params()[ParamDocumentType])
}

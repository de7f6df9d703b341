package flow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TeoEchavarria/sura-automatization-reschedule/pipeline"
)

const loginFlow = `
name: portal-login
description: authenticate against the portal
url: https://example.com/login
blocks:
  - name: credentials
    attempts: 3
    delay_sec: 5
    actions:
      - kind: wait_visible
        description: wait for login form
        by: id
        path: aspnetForm
        timeout_sec: 10
      - kind: send_keys
        description: type the document number
        by: id
        path: documentNumber
        payload: ${document}
  - name: keypad
    actions:
      - kind: composite_input_press
        description: press the PIN digits
        by: xpath
        path: //button[normalize-space()='%s']
        payload: ${pin}
`

func TestParseAndBuild(t *testing.T) {
	def, err := Parse([]byte(loginFlow))
	require.NoError(t, err)
	assert.Equal(t, "portal-login", def.Name)
	require.Len(t, def.Blocks, 2)

	blocks, err := def.Build(map[string]string{"document": "1020304050", "pin": "1204"})
	require.NoError(t, err)
	require.Len(t, blocks, 2)

	creds := blocks[0]
	assert.Equal(t, "credentials", creds.Name)
	assert.Equal(t, 3, creds.Options.Attempts)
	assert.Equal(t, 5*time.Second, creds.Options.Delay)
	require.Len(t, creds.Actions, 2)
	assert.Equal(t, pipeline.ActionWaitVisible, creds.Actions[0].Kind)
	assert.Equal(t, 10*time.Second, creds.Actions[0].Timeout)
	assert.Equal(t, "1020304050", creds.Actions[1].Payload)

	keypad := blocks[1]
	assert.Equal(t, 0, keypad.Options.Attempts)
	require.Len(t, keypad.Actions, 1)
	assert.Equal(t, "1204", keypad.Actions[0].Payload)
	assert.Contains(t, keypad.Actions[0].Locator.Path, "%s")
}

func TestBuildRejectsUnresolvedParam(t *testing.T) {
	def, err := Parse([]byte(loginFlow))
	require.NoError(t, err)

	_, err = def.Build(map[string]string{"document": "1020304050"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "${pin}")
}

func TestParseRejectsUnknownKind(t *testing.T) {
	bad := `
name: bad
blocks:
  - name: b
    actions:
      - kind: double_click
        by: css
        path: "#x"
`
	_, err := Parse([]byte(bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "double_click")
}

func TestParseRejectsUnknownStrategy(t *testing.T) {
	bad := `
name: bad
blocks:
  - name: b
    actions:
      - kind: click
        by: link_text
        path: "Continue"
`
	_, err := Parse([]byte(bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "link_text")
}

func TestParseRejectsEmptyFlow(t *testing.T) {
	_, err := Parse([]byte("name: empty\nblocks: []\n"))
	require.Error(t, err)

	_, err = Parse([]byte("blocks:\n  - name: b\n    actions:\n      - kind: click\n        by: css\n        path: x\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no name")
}

func TestBuiltActionsValidate(t *testing.T) {
	def, err := Parse([]byte(loginFlow))
	require.NoError(t, err)
	blocks, err := def.Build(map[string]string{"document": "1", "pin": "2"})
	require.NoError(t, err)
	for _, b := range blocks {
		for _, a := range b.Actions {
			assert.NoError(t, a.Validate(), a.Description)
		}
	}
}

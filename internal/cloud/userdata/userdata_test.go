package userdata

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBuilder() *Builder {
	return &Builder{
		HostedZoneID:    "Z123",
		RelayBucket:     "relay-bucket",
		Region:          "us-east-1",
		AccessKeyID:     "AKIAAGENT",
		SecretAccessKey: "agent-secret",
	}
}

func TestRender(t *testing.T) {
	script, err := testBuilder().Render("abc.nylund.us")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(script, "#!/bin/bash\n"))
	assert.Contains(t, script, "pm2 start yarn")
	assert.Contains(t, script, "install-relay.js")
	assert.Contains(t, script, "systemctl start ddns-route53")
}

func TestRender_ConfigJSON(t *testing.T) {
	script, err := testBuilder().Render("abc.nylund.us")
	require.NoError(t, err)

	// The config file the relay reads is embedded between quotes; it
	// has to be parseable JSON with the deploy-time values filled in.
	start := strings.Index(script, "echo '") + len("echo '")
	end := strings.Index(script, "' > /app/config.json")
	require.Greater(t, end, start)

	var cfg map[string]string
	require.NoError(t, json.Unmarshal([]byte(script[start:end]), &cfg))
	assert.Equal(t, "abc.nylund.us", cfg["DOMAIN"])
	assert.Equal(t, "Z123", cfg["HOSTED_ZONE_ID"])
	assert.Equal(t, "relay-bucket", cfg["BUCKET"])
	assert.Equal(t, "AKIAAGENT", cfg["AWS_ACCESS_KEY_ID"])
}

func TestRender_DDNSRecord(t *testing.T) {
	script, err := testBuilder().Render("abc.nylund.us")
	require.NoError(t, err)

	// The agent keeps the A record pointed at the instance; it must
	// target the fqdn with the trailing dot.
	assert.Contains(t, script, `name: "abc.nylund.us."`)
	assert.Contains(t, script, `hostedZoneID: "Z123"`)
	assert.Contains(t, script, `accessKeyID: "AKIAAGENT"`)
}

// Package userdata renders the bootstrap script baked into a relay
// instance at launch. The script installs the relay server from S3,
// starts it under pm2 and sets up the ddns-route53 agent that points the
// server's A record at the instance's real public address.
package userdata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"
)

// Builder carries the deploy-time values the script embeds. The
// credentials are the restricted agent pair, not the API's own.
type Builder struct {
	HostedZoneID    string
	RelayBucket     string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

type scriptData struct {
	Domain     string
	ConfigJSON string
	DDNSConfig string
	DDNSUnit   string
}

// Render produces the user-data script for one server, with the server's
// fully qualified domain name substituted throughout.
func (b *Builder) Render(domain string) (string, error) {
	cfg, err := json.MarshalIndent(map[string]string{
		"HOSTED_ZONE_ID":        b.HostedZoneID,
		"DOMAIN":                domain,
		"BUCKET":                b.RelayBucket,
		"AWS_ACCESS_KEY_ID":     b.AccessKeyID,
		"AWS_SECRET_ACCESS_KEY": b.SecretAccessKey,
		"REGION":                b.Region,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal instance config: %w", err)
	}

	var out bytes.Buffer
	err = bootstrapTemplate.Execute(&out, scriptData{
		Domain:     domain,
		ConfigJSON: string(cfg),
		DDNSConfig: b.ddnsConfig(domain),
		DDNSUnit:   ddnsUnit,
	})
	if err != nil {
		return "", fmt.Errorf("render user data: %w", err)
	}
	return out.String(), nil
}

func (b *Builder) ddnsConfig(domain string) string {
	return fmt.Sprintf(`credentials:
  accessKeyID: "%s"
  secretAccessKey: "%s"

route53:
  hostedZoneID: "%s"
  recordsSet:
    - name: "%s."
      type: "A"
      ttl: 60`, b.AccessKeyID, b.SecretAccessKey, b.HostedZoneID, domain)
}

const ddnsUnit = `
[Unit]
Description=ddns-route53
Documentation=https://crazymax.dev/ddns-route53/
After=syslog.target
After=network.target

[Service]
RestartSec=2s
Type=simple
User=root
ExecStart=/app/ddns-route53/ddns-route53 --config /app/ddns-route53/ddns-route53.yml
Restart=always
Environment=SCHEDULE="*/30 * * * *"

[Install]
WantedBy=multi-user.target`

var bootstrapTemplate = template.Must(template.New("bootstrap").Parse(`#!/bin/bash
mkdir /app
echo '{{.ConfigJSON}}' > /app/config.json
apt install unzip > /app/unzipinstall
npm install -g aws-sdk @aws-sdk/client-s3 pm2 > /app/npminstall
env PATH=$PATH:/usr/bin /usr/lib/node_modules/pm2/bin/pm2 startup systemd -u root --hp /app > /app/pm2startup
wget -O /app/install-relay.js https://broadcasting-system-files.s3.amazonaws.com/install-relay.js > /app/installer
cd /app
node install-relay.js > /app/installrelay.log
unzip /app/relay.zip
yarn > /app/yarnlog
PM2_HOME='/app/.pm2' pm2 start yarn --name "Relay Server" -- start:prod > /app/pm2start
PM2_HOME='/app/.pm2' pm2 save
mkdir /app/ddns-route53
echo '{{.DDNSConfig}}' > /app/ddns-route53/ddns-route53.yml
cd /app/ddns-route53 && wget -qO- https://github.com/crazy-max/ddns-route53/releases/download/v2.8.0/ddns-route53_2.8.0_linux_amd64.tar.gz | tar -zxvf - ddns-route53
echo '{{.DDNSUnit}}' > /etc/systemd/system/ddns-route53.service
systemctl enable ddns-route53
systemctl start ddns-route53
`))

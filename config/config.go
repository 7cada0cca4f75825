// Package config loads the nested YAML configuration document described in
// the external interfaces, using gopkg.in/yaml.v3 — the config library the
// teacher and the rest of the retrieval pack standardize on. The loaded
// Config is immutable after Load returns; runtime-adjustable state (like
// dynamic bulletins) lives on the session handle instead.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ClientConfig names the bot's identity and default behaviors.
type ClientConfig struct {
	AprsisCallsign                     string `yaml:"aprsis_callsign"`
	AprsisTocall                       string `yaml:"aprsis_tocall"`
	AprsClientName                     string `yaml:"aprs_client_name"`
	AprsInputParserDefaultErrorMessage string `yaml:"aprs_input_parser_default_error_message"`
	AprsMessageEnumeration             bool   `yaml:"aprs_message_enumeration"`
	LogLevel                           string `yaml:"log_level"`
}

// NetworkConfig names the APRS-IS server to connect to.
type NetworkConfig struct {
	AprsisServerName   string `yaml:"aprsis_server_name"`
	AprsisServerPort   int    `yaml:"aprsis_server_port"`
	AprsisPasscode     string `yaml:"aprsis_passcode"`
	AprsisServerFilter string `yaml:"aprsis_server_filter"`
}

// BeaconConfig configures the periodic position beacon.
type BeaconConfig struct {
	AprsisBroadcastBeacon       bool    `yaml:"aprsis_broadcast_beacon"`
	AprsisTable                 string  `yaml:"aprsis_table"`
	AprsisSymbol                string  `yaml:"aprsis_symbol"`
	AprsisLatitude              string  `yaml:"aprsis_latitude"`
	AprsisLongitude             string  `yaml:"aprsis_longitude"`
	AprsisBeaconAltitudeFt      int     `yaml:"aprsis_beacon_altitude_ft"`
	AprsisBeaconIntervalMinutes float64 `yaml:"aprsis_beacon_interval_minutes"`
}

// BulletinConfig configures the periodic bulletin broadcast. Bulletins holds
// any key matching the BLNxxx convention; everything else in the section is
// a named field above it.
type BulletinConfig struct {
	AprsisBroadcastBulletins      bool              `yaml:"aprsis_broadcast_bulletins"`
	AprsisBulletinIntervalMinutes float64           `yaml:"aprsis_bulletin_interval_minutes"`
	Bulletins                     map[string]string `yaml:"-"`
}

// CrashHandlerConfig names the crash-report notification bridge.
type CrashHandlerConfig struct {
	AppriseConfigFile string `yaml:"apprise_config_file"`
	NohupFilename     string `yaml:"nohup_filename"`
}

// DupeDetectionConfig sizes the dedup cache.
type DupeDetectionConfig struct {
	MsgCacheMaxEntries  int `yaml:"msg_cache_max_entries"`
	MsgCacheTimeToLive int `yaml:"msg_cache_time_to_live"`
}

// MessageDelayConfig names the inter-packet sleeps the pipeline and
// scheduler honor, in seconds.
type MessageDelayConfig struct {
	PacketDelayMessage     float64 `yaml:"packet_delay_message"`
	PacketDelayAck         float64 `yaml:"packet_delay_ack"`
	PacketDelayGracePeriod float64 `yaml:"packet_delay_grace_period"`
	PacketDelayBulletin    float64 `yaml:"packet_delay_bulletin"`
	PacketDelayBeacon      float64 `yaml:"packet_delay_beacon"`
}

// TestingConfig gates test-only behaviors.
type TestingConfig struct {
	AprsisEnforceUnicodeMessages bool `yaml:"aprsis_enforce_unicode_messages"`
	AprsisSimulateSend           bool `yaml:"aprsis_simulate_send"`
}

// DataStorageConfig names the on-disk counter file and the optional audit
// database this expansion adds.
type DataStorageConfig struct {
	AprsDataDirectory          string `yaml:"aprs_data_directory"`
	AprsMessageCounterFileName string `yaml:"aprs_message_counter_file_name"`
	AuditEnabled               bool   `yaml:"audit_enabled"`
	AuditDBFileName            string `yaml:"audit_db_file_name"`
}

// Config is the fully loaded, immutable configuration document.
type Config struct {
	ClientConfig   ClientConfig        `yaml:"client_config"`
	NetworkConfig  NetworkConfig       `yaml:"network_config"`
	BeaconConfig   BeaconConfig        `yaml:"beacon_config"`
	BulletinConfig BulletinConfig      `yaml:"bulletin_config"`
	CrashHandler   CrashHandlerConfig  `yaml:"crash_handler"`
	DupeDetection  DupeDetectionConfig `yaml:"dupe_detection"`
	MessageDelay   MessageDelayConfig  `yaml:"message_delay"`
	Testing        TestingConfig       `yaml:"testing"`
	DataStorage    DataStorageConfig   `yaml:"data_storage"`
}

// requiredSections names the top-level keys that must be present; their
// absence is a load error. Other sections may be absent, and unrecognized
// top-level keys are ignored; Load logs neither.
var requiredSections = []string{"client_config", "network_config"}

// Load reads and parses the YAML document at path. Missing required
// sections are a load error; the bulletin section's arbitrary BLNxxx
// entries are collected into Bulletins separately from its named fields.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var generic map[string]any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	for _, section := range requiredSections {
		if _, ok := generic[section]; !ok {
			return nil, fmt.Errorf("config: missing required section %q", section)
		}
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}

	if cfg.ClientConfig.LogLevel == "" {
		cfg.ClientConfig.LogLevel = "info"
	}

	cfg.BulletinConfig.Bulletins = extractBulletins(generic)
	return &cfg, nil
}

// extractBulletins pulls BLNxxx → text entries out of the bulletin_config
// section, which yaml.v3 would otherwise silently drop since they have no
// matching named struct field.
func extractBulletins(generic map[string]any) map[string]string {
	out := make(map[string]string)
	section, ok := generic["bulletin_config"]
	if !ok {
		return out
	}
	m, ok := section.(map[string]any)
	if !ok {
		return out
	}
	for k, v := range m {
		if len(k) < 3 || k[:3] != "BLN" {
			continue
		}
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

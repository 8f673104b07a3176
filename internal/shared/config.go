package shared

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Database struct {
		Driver string `yaml:"driver"` // "sqlite" (default)
		DSN    string `yaml:"dsn"`    // "./pyward.db"
	} `yaml:"database"`

	Analysis struct {
		Optimization      bool     `yaml:"optimization"`       // run optimization rules
		Security          bool     `yaml:"security"`           // run security rules
		SeverityThreshold string   `yaml:"severity_threshold"` // LOW|MEDIUM|HIGH
		Disabled          []string `yaml:"disabled"`           // rule IDs to skip
		VulnDB            string   `yaml:"vulndb"`             // optional signatures file
		RulesPack         string   `yaml:"rules_pack"`         // optional YAML rule pack
	} `yaml:"analysis"`

	Reporting struct {
		OutDir  string `yaml:"out_dir"` // "./reports"
		Format  string `yaml:"format"`  // "text"|"json"|"html"|"sarif"
		Verbose bool   `yaml:"verbose"` // include source context lines
	} `yaml:"reporting"`

	Logging struct {
		Format string `yaml:"format"` // "json"|"text"
		Level  string `yaml:"level"`  // "info"|"debug"|"warn"|"error"
	} `yaml:"logging"`

	Server struct {
		Addr string `yaml:"addr"` // ":8080"
	} `yaml:"server"`
}

func DefaultConfig() Config {
	var c Config
	c.Database.Driver = "sqlite"
	c.Database.DSN = "./pyward.db"
	c.Analysis.Optimization = true
	c.Analysis.Security = true
	c.Analysis.SeverityThreshold = "LOW"
	c.Reporting.OutDir = "./reports"
	c.Reporting.Format = "text"
	c.Logging.Format = "json"
	c.Logging.Level = "info"
	c.Server.Addr = ":8080"
	return c
}

func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()
	if path != "" {
		if b, err := os.ReadFile(path); err == nil {
			_ = yaml.Unmarshal(b, &c)
		}
	}
	// Env overrides (simple, explicit)
	if v := os.Getenv("PYWARD_DB_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("PYWARD_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("PYWARD_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("PYWARD_OUT_DIR"); v != "" {
		c.Reporting.OutDir = v
	}
	if v := os.Getenv("PYWARD_SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("PYWARD_SEVERITY"); v != "" {
		c.Analysis.SeverityThreshold = v
	}
	return c, nil
}

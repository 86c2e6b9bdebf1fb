package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Deployment is the YAML deployment file. It carries the settings payload
// served at {context}/services/settings and an optional default theme that
// replaces the built-in one.
//
//	settings:
//	  identityProvider:
//	    external: true
//	  app:
//	    customUrl:
//	      enabled: false
//	defaultTheme:
//	  palette:
//	    primary:
//	      main: "#15b8cf"
//	  custom:
//	    title:
//	      prefix: "[Devportal]"
//	      sufix: " - Developer Portal"
type Deployment struct {
	Settings     map[string]interface{} `yaml:"settings"`
	DefaultTheme map[string]interface{} `yaml:"defaultTheme"`
}

// LoadDeployment reads and parses a deployment file
func LoadDeployment(path string) (*Deployment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ParseDeployment(data)
}

// ParseDeployment parses deployment YAML
func ParseDeployment(data []byte) (*Deployment, error) {
	var d Deployment
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("invalid deployment YAML: %w", err)
	}
	if d.Settings == nil {
		d.Settings = map[string]interface{}{}
	}
	return &d, nil
}

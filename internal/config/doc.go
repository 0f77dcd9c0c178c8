// Package config provides configuration management for flinktrack.
//
// Configuration is a single YAML file loaded over built-in defaults. The
// default location is ~/.config/flinktrack/config.yaml; commands accept
// --config to name another file. Durations use Go duration syntax.
//
// # Example
//
//	kubernetes:
//	  kubeconfig: /home/me/.kube/config
//	  namespaces: [prod, staging]
//	tracker:
//	  pollInterval: 10s
//	  expectationTimeout: 5m
//	  watchEnabled: true
//	events:
//	  recordKubernetesEvents: true
//	logging:
//	  level: debug
//	  format: json
//
// Keys that are not set keep their defaults. A file that cannot be parsed or
// fails validation yields a ConfigurationError (or a
// ConfigurationErrorCollection with one entry per offending key) naming the
// file and the field.
package config

// Package config provides configuration management for the credit trends
// dashboard. It handles loading configuration from multiple sources and
// validates it before any component is wired.
//
// # Configuration Sources
//
// Configuration is resolved in the following order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML configuration file (config.yaml, configs/config.yaml or CREDIT_CONFIG_FILE)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern CREDIT_<SECTION>_<FIELD>:
//
//	CREDIT_SERVER_PORT=8080
//	CREDIT_DATASET_FILE=data/24Q4-CreditCardBalances.csv
//	CREDIT_DASHBOARD_HEADLINE_UTILIZATION=utilization_p50
//	CREDIT_LOGGING_LEVEL=debug
//
// # KPI Mapping
//
// The KPI callouts are a configurable projection of the metric catalog.
// They can only be set from the YAML file:
//
//	dashboard:
//	  headline_utilization: utilization_p90
//	  kpis:
//	    - id: headline_utilization
//	      label: Utilization
//	      metric: headline_utilization
//	      format: percent
//	      precision: 2
//	      show_delta: true
package config

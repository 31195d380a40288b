package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"loja_checkout/internal/adapter/persistence/repository"
	"loja_checkout/internal/infrastructure/config"
	"loja_checkout/internal/infrastructure/database"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"gopkg.in/yaml.v3"
)

var errConflictingSources = errors.New("--settings and --dynamodb are mutually exclusive")

type settingsFile struct {
	Settings map[string]yaml.Node `yaml:"settings"`
}

// loadSettings returns the raw settings map from the selected source. An
// empty map means every policy value falls back to its default.
func loadSettings(ctx context.Context, opts *rootOptions) (map[string]string, error) {
	switch {
	case opts.useDynamo && opts.settingsPath != "":
		return nil, errConflictingSources
	case opts.useDynamo:
		cfg, client, err := connect(ctx, opts)
		if err != nil {
			return nil, err
		}
		return repository.NewSettingsDynamoRepository(client, cfg.Tables).GetAll(ctx)
	case opts.settingsPath != "":
		return readSettingsFile(opts.settingsPath)
	}
	return map[string]string{}, nil
}

func readSettingsFile(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	var f settingsFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return flattenSettings(f.Settings)
}

// flattenSettings turns YAML values into the strings the settings table
// stores. Lists become comma lists, which the policy loader accepts.
func flattenSettings(nodes map[string]yaml.Node) (map[string]string, error) {
	out := make(map[string]string, len(nodes))
	for key, n := range nodes {
		switch n.Kind {
		case yaml.ScalarNode:
			out[key] = n.Value
		case yaml.SequenceNode:
			parts := make([]string, 0, len(n.Content))
			for _, c := range n.Content {
				if c.Kind != yaml.ScalarNode {
					return nil, fmt.Errorf("setting %s: nested lists are not supported", key)
				}
				parts = append(parts, c.Value)
			}
			out[key] = strings.Join(parts, ",")
		default:
			return nil, fmt.Errorf("setting %s: expected a scalar or a list", key)
		}
	}
	return out, nil
}

func connect(ctx context.Context, opts *rootOptions) (*config.Config, *dynamodb.Client, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, nil, err
	}
	client, err := database.NewDynamoClient(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create dynamodb client: %w", err)
	}
	return cfg, client, nil
}

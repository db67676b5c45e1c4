package config

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ParameterStore is the subset of the SSM client used to load configuration.
type ParameterStore interface {
	GetParametersByPath(ctx context.Context, params *ssm.GetParametersByPathInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error)
}

// OverlaySSM copies every parameter under parameterPath into config.
// Values already set in the environment win, so a local .env can still override a deployed secret.
func OverlaySSM(ctx context.Context, store ParameterStore, parameterPath string, config map[string]string) (int, error) {
	if store == nil || parameterPath == "" {
		return 0, nil
	}

	loaded := 0
	paginator := ssm.NewGetParametersByPathPaginator(store, &ssm.GetParametersByPathInput{
		Path:           aws.String(parameterPath),
		Recursive:      aws.Bool(true),
		WithDecryption: aws.Bool(true),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return loaded, fmt.Errorf("load ssm parameters from %s: %w", parameterPath, err)
		}
		for _, param := range page.Parameters {
			key := parameterKey(aws.ToString(param.Name))
			if key == "" {
				continue
			}
			if existing, ok := config[key]; ok && existing != "" {
				continue
			}
			config[key] = aws.ToString(param.Value)
			loaded++
		}
	}

	return loaded, nil
}

// parameterKey turns "/portfolio/prod/resend-api-key" into "RESEND_API_KEY".
func parameterKey(name string) string {
	base := path.Base(strings.TrimSpace(name))
	if base == "." || base == "/" {
		return ""
	}
	return strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(base))
}

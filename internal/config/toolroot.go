package config

import (
	"fmt"
	"os"
)

// DirExists reports whether path is an existing directory.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// ResolveToolRoot picks the simulator install. An explicit root always wins
// and is returned even if it is missing, so the pipeline reports it. Without
// one, the ToolRootEnv value and then each fallback are tried in order and
// the first existing directory is returned.
func ResolveToolRoot(explicit string, getenv func(string) string, fallbacks []string, exists func(string) bool) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if exists == nil {
		exists = DirExists
	}

	var tried []string
	if getenv != nil {
		if env := getenv(ToolRootEnv); env != "" {
			if exists(env) {
				return env, nil
			}
			tried = append(tried, env)
		}
	}
	for _, root := range fallbacks {
		if exists(root) {
			return root, nil
		}
		tried = append(tried, root)
	}

	if len(tried) == 0 {
		return "", fmt.Errorf("%w: %s is not set and no fallback roots are configured", ErrToolRootNotFound, ToolRootEnv)
	}
	return "", fmt.Errorf("%w: tried %v", ErrToolRootNotFound, tried)
}

// ResolveToolRoot resolves the tool root for this config.
func (c *PipelineConfig) ResolveToolRoot(getenv func(string) string, exists func(string) bool) (string, error) {
	explicit := ""
	if c.ToolRoot != nil {
		explicit = *c.ToolRoot
	}
	return ResolveToolRoot(explicit, getenv, c.FallbackToolRoots, exists)
}

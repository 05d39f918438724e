// Сборка файлов конфигурации: базовый values_base.yaml + оверлей на
// окружение -> configs/values_<env>.yaml. Запускается руками или из CI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"gopkg.in/yaml.v2"

	"github.com/spf13/viper"
)

const baseConfigName = "values_base"

func mergeOverlay(overlayFile string) (string, error) {
	base := viper.New()
	base.SetConfigName(baseConfigName)
	base.SetConfigType("yaml")
	base.AddConfigPath("configs")
	if err := base.ReadInConfig(); err != nil {
		return "", errors.Wrap(err, "read base config")
	}

	overlay := viper.New()
	overlay.SetConfigFile(overlayFile)
	if err := overlay.ReadInConfig(); err != nil {
		return "", errors.Wrap(err, "read overlay")
	}

	if err := base.MergeConfigMap(overlay.AllSettings()); err != nil {
		return "", errors.Wrap(err, "merge overlay")
	}

	bs, err := yaml.Marshal(base.AllSettings())
	if err != nil {
		return "", errors.Wrap(err, "marshal merged config")
	}

	env := strings.TrimSuffix(filepath.Base(overlayFile), filepath.Ext(overlayFile))
	outFile := filepath.Join("configs", fmt.Sprintf("values_%s.yaml", env))
	if err := os.WriteFile(outFile, bs, 0o644); err != nil {
		return "", errors.Wrap(err, "write result")
	}
	return outFile, nil
}

func main() {
	overlays, err := filepath.Glob("configs/overlays/*.yaml")
	if err != nil {
		panic(fmt.Errorf("get overlay glob: %w", err))
	}
	if len(overlays) == 0 {
		panic("no overlays in configs/overlays")
	}

	for _, overlay := range overlays {
		out, mErr := mergeOverlay(overlay)
		if mErr != nil {
			panic(fmt.Errorf("can't merge %s: %w", overlay, mErr))
		}
		fmt.Printf("%s -> %s\n", overlay, out)
	}
	fmt.Println("done")
}

package configutil

import (
	"errors"
	"io/fs"
	"log/slog"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// LoadEnv loads the given dotenv files into the process environment (missing
// files are skipped, existing variables are not overwritten) and then
// overlays every `env:"..."` tagged field of out with the environment.
// Fields whose variable is unset keep their current value.
func LoadEnv(out any, dotenvFiles ...string) error {
	for _, f := range dotenvFiles {
		err := godotenv.Load(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return err
		}
		slog.Debug("loaded dotenv file", "file", f)
	}
	return cleanenv.ReadEnv(out)
}

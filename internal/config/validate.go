package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/verte-zerg/dualtask/internal/model"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	_ = validate.RegisterValidation("taskname", validateTaskName)
}

// validateTaskName accepts practice_<variant> and test_<variant>.
func validateTaskName(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	for _, prefix := range []string{"practice_", "test_"} {
		if rest, ok := strings.CutPrefix(name, prefix); ok && rest != "" {
			return true
		}
	}
	return false
}

// Validate checks a merged configuration. The returned error lists every
// failing field by its TOML-facing name.
func Validate(cfg model.Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fieldName(fe.Namespace()), fe.Tag(), fe.Value()))
		}
		return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
	}
	for _, task := range cfg.Tasks {
		if err := validate.Var(task, "taskname"); err != nil {
			return fmt.Errorf("invalid config: task %q must start with practice_ or test_", task)
		}
	}
	return nil
}

func fieldName(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		ns = rest
	}
	return strings.ToLower(ns)
}

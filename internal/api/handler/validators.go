package handler

import (
	"fmt"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"lms-core/internal/model"
	"lms-core/internal/service"
)

var registerOnce sync.Once

// RegisterValidators 向 gin 的校验器注册自定义规则：
//   - season：Spring / Summer / Fall，大小写不敏感
//   - clock：HH:MM、HH:MM:SS 或 RFC3339
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("gin 校验引擎不是 validator/v10")
			return
		}
		if err = v.RegisterValidation("season", validateSeason); err != nil {
			return
		}
		err = v.RegisterValidation("clock", validateClock)
	})
	return err
}

func validateSeason(fl validator.FieldLevel) bool {
	_, err := model.ParseSeason(fl.Field().String())
	return err == nil
}

func validateClock(fl validator.FieldLevel) bool {
	_, err := service.ParseClock(fl.Field().String())
	return err == nil
}

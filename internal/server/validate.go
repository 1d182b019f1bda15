package server

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/abhisek/tcmdx/internal/llm"
)

var registerOnce sync.Once

// registerValidators adds the request validation tags to gin's validator.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("chatrole", func(fl validator.FieldLevel) bool {
			switch llm.Role(fl.Field().String()) {
			case llm.RoleUser, llm.RoleAssistant:
				return true
			}
			return false
		})
		_ = v.RegisterValidation("reqtype", func(fl validator.FieldLevel) bool {
			switch fl.Field().String() {
			case RequestChat, RequestImage:
				return true
			}
			return false
		})
	})
}

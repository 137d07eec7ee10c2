package bot

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	tele "gopkg.in/telebot.v4"
)

// Recover turns a panic in a handler into an error, logs it and tells the
// chat something went wrong.
func Recover(onError ...func(error, tele.Context)) tele.MiddlewareFunc {
	handleError := func(err error, c tele.Context) {
		log.Printf("Recovered from panic: %v", err)
		c.Send("Something went wrong. Please try again.")
	}
	if len(onError) > 0 {
		handleError = onError[0]
	}

	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					var e error
					switch x := r.(type) {
					case error:
						e = x
					case string:
						e = errors.New(x)
					default:
						e = fmt.Errorf("panic: %v", x)
					}
					handleError(e, c)
					err = e
				}
			}()
			return next(c)
		}
	}
}

// Logger dumps every incoming update as JSON.
func Logger(logger ...*log.Logger) tele.MiddlewareFunc {
	l := log.Default()
	if len(logger) > 0 {
		l = logger[0]
	}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			data, _ := json.MarshalIndent(c.Update(), "", "  ")
			l.Println(string(data))
			return next(c)
		}
	}
}

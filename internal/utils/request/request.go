package request

import (
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Request is the shared outbound client. Callers bound each call with a context deadline.
var Request = New(30 * time.Second)

// New returns a resty client honouring proxy env vars with a hard overall timeout.
func New(timeout time.Duration) *resty.Client {
	return resty.New().SetTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment, // 通用适配环境变量
	}).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err == nil && r.StatusCode() >= http.StatusInternalServerError
		})
}

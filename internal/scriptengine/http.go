package scriptengine

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dop251/goja"
	"github.com/worldline-go/klient"
)

// registerHTTPHelpers installs httpGet/httpPost/httpPut/httpDelete, grounded
// on the teacher's registerGojaHTTPHelpers/doHTTPRequest in
// internal/service/workflow/goja.go, but built on klient (per the domain
// stack's HTTP client choice, see discover.go's klientForConfig) instead of
// a raw *http.Client.
func registerHTTPHelpers(vm *goja.Runtime) error {
	client, err := klient.New(
		klient.WithDisableBaseURLCheck(true),
		klient.WithLogger(slog.Default()),
	)
	if err != nil {
		return err
	}

	if err := vm.Set("httpGet", func(call goja.FunctionCall) goja.Value {
		return doHTTPRequest(vm, client, http.MethodGet, call)
	}); err != nil {
		return err
	}
	if err := vm.Set("httpPost", func(call goja.FunctionCall) goja.Value {
		return doHTTPRequest(vm, client, http.MethodPost, call)
	}); err != nil {
		return err
	}
	if err := vm.Set("httpPut", func(call goja.FunctionCall) goja.Value {
		return doHTTPRequest(vm, client, http.MethodPut, call)
	}); err != nil {
		return err
	}
	if err := vm.Set("httpDelete", func(call goja.FunctionCall) goja.Value {
		return doHTTPRequest(vm, client, http.MethodDelete, call)
	}); err != nil {
		return err
	}

	return nil
}

// doHTTPRequest mirrors the teacher's doHTTPRequest: (url, body?, headers?)
// arguments, JSON-encodes a non-string body, tries to JSON-decode the
// response body before falling back to a plain string, and returns
// {status, headers, body}.
func doHTTPRequest(vm *goja.Runtime, client *klient.Client, method string, call goja.FunctionCall) goja.Value {
	if len(call.Arguments) == 0 {
		panic(vm.NewTypeError(method + ": url argument required"))
	}
	url := call.Arguments[0].String()

	var bodyReader io.Reader
	if len(call.Arguments) > 1 && !goja.IsUndefined(call.Arguments[1]) && !goja.IsNull(call.Arguments[1]) {
		exported := call.Arguments[1].Export()
		switch v := exported.(type) {
		case string:
			bodyReader = strings.NewReader(v)
		case []byte:
			bodyReader = bytes.NewReader(v)
		default:
			data, err := json.Marshal(v)
			if err != nil {
				panic(vm.NewTypeError(method + ": cannot encode body: " + err.Error()))
			}
			bodyReader = bytes.NewReader(data)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		panic(vm.NewTypeError(method + ": " + err.Error()))
	}
	req.Header.Set("Content-Type", "application/json")

	if len(call.Arguments) > 2 && !goja.IsUndefined(call.Arguments[2]) && !goja.IsNull(call.Arguments[2]) {
		if headers, ok := call.Arguments[2].Export().(map[string]any); ok {
			for k, v := range headers {
				if s, ok := v.(string); ok {
					req.Header.Set(k, s)
				}
			}
		}
	}

	resp, err := client.HTTP.Do(req)
	if err != nil {
		panic(vm.NewTypeError(method + ": " + err.Error()))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		panic(vm.NewTypeError(method + ": reading response: " + err.Error()))
	}

	var parsedBody any
	if err := json.Unmarshal(data, &parsedBody); err != nil {
		parsedBody = string(data)
	}

	headers := map[string]any{}
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}

	return vm.ToValue(map[string]any{
		"status":  resp.StatusCode,
		"headers": headers,
		"body":    parsedBody,
	})
}

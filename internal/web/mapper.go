package web

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/fittrack/fittrack/internal/errorz"
	"github.com/gorilla/schema"
)

// mapper is a generic HTTP handler that maps requests to target
// function calls and writes the output to the response. The request
// mapping, success response and failure response are all customizable
// per route.
type mapper[IN, OUT any] struct {
	reqToInFunc func(s shared) (IN, error)
	targetFunc  func(context.Context, IN) (OUT, error)
	onSuccess   func(r result[IN, OUT]) error
	onFail      func(s shared, err error)
}

// shared is the request state available to all mapping funcs.
type shared struct {
	w http.ResponseWriter
	r *http.Request
}

// result is the result of a succesful request. It contains all
// relevant data because we can't know in advance what we will need to
// construct a response.
type result[IN, OUT any] struct {
	shared
	in  IN
	out OUT
}

// newHandler creates a HTTP handler that:
// 1. Maps the request to a value of input type IN.
// 2. Calls the target func with that value.
// 3. Writes the output of type OUT using the onSuccess func.
func newHandler[IN, OUT any](srv *Server, targetFunc func(context.Context, IN) (OUT, error)) *mapper[IN, OUT] {
	return &mapper[IN, OUT]{
		reqToInFunc: func(s shared) (IN, error) {
			return defaultReqToIn[IN](srv, s)
		},
		targetFunc: targetFunc,
		onSuccess: func(r result[IN, OUT]) error {
			r.w.WriteHeader(http.StatusOK)
			return nil
		},
		onFail: func(s shared, err error) {
			srv.handleError(s.w, s.r, err)
		},
	}
}

// newInputHandler is newHandler for target funcs without output.
func newInputHandler[IN any](srv *Server, targetFunc func(context.Context, IN) error) *mapper[IN, struct{}] {
	return newHandler(srv, func(ctx context.Context, in IN) (struct{}, error) {
		return struct{}{}, targetFunc(ctx, in)
	})
}

// request overwrites the function that maps the request to the input type.
func (m *mapper[IN, OUT]) request(fn func(s shared) (IN, error)) *mapper[IN, OUT] {
	m.reqToInFunc = fn
	return m
}

// success sets the function that writes the success response.
func (m *mapper[IN, OUT]) success(fn func(r result[IN, OUT]) error) *mapper[IN, OUT] {
	m.onSuccess = fn
	return m
}

// fail overwrites the function that writes the failure response.
func (m *mapper[IN, OUT]) fail(fn func(s shared, err error)) *mapper[IN, OUT] {
	m.onFail = fn
	return m
}

func (m *mapper[IN, OUT]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s := shared{w: w, r: r}

	in, err := m.reqToInFunc(s)
	if err != nil {
		m.onFail(s, err)
		return
	}

	out, err := m.targetFunc(r.Context(), in)
	if err != nil {
		m.onFail(s, err)
		return
	}

	err = m.onSuccess(result[IN, OUT]{shared: s, in: in, out: out})
	if err != nil {
		m.onFail(s, err)
	}
}

// defaultReqToIn maps a request body to a struct: a JSON body when the
// content type says so, form values otherwise.
func defaultReqToIn[IN any](srv *Server, s shared) (IN, error) {
	var in IN

	if isJSONRequest(s.r) {
		err := json.NewDecoder(s.r.Body).Decode(&in)
		if err != nil {
			return in, errorz.InvalidInput{errorz.Keyed{Key: "body", Err: err}}
		}

		return in, nil
	}

	err := s.r.ParseForm()
	if err != nil {
		return in, err
	}

	// Remove the CSRF token from the form, it won't need to be mapped
	// to any target types and the decoder would fail on it.
	s.r.Form.Del(csrfTokenField)

	err = srv.decoder.Decode(&in, s.r.Form)
	return in, decodeError(err)
}

func isJSONRequest(r *http.Request) bool {
	ct, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}

	return ct == "application/json"
}

func decodeError(err error) error {
	if err == nil {
		return nil
	}

	var multiErr schema.MultiError
	if errors.As(err, &multiErr) {
		var invalidInput errorz.InvalidInput
		for key, e := range multiErr {
			invalidInput = append(invalidInput, errorz.Keyed{
				Key: key,
				Err: e,
			})
		}

		return invalidInput
	}

	return err
}

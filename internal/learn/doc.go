// Package learn provides an HTTP client for the learning platform API.
//
// # Overview
//
// The platform serves lesson content, tracks completion and runs Python code
// on a sandboxed executor. This package maps those endpoints onto typed Go
// calls and normalizes every failure into a single *Error value.
//
// The package is split into three files:
//
//   - client.go: HTTP client implementation and request/response handling
//   - types.go: Data structures mirroring the platform's JSON payloads
//   - errors.go: The uniform error type and its classification helpers
//
// # Client Usage
//
//	client, err := learn.NewClient("http://127.0.0.1:5001", 10*time.Second)
//	if err != nil {
//		return err
//	}
//
//	lessons, err := client.ListLessons(ctx)
//	if err != nil {
//		log.Printf("lesson fetch failed: %s", learn.Message(err))
//	}
//
// # API Endpoints
//
//	GET  /api/lessons                 → {success, lessons}
//	GET  /api/lessons/{id}            → {success, lesson}
//	POST /api/lessons/{id}/complete   → {success, progress}
//	GET  /api/progress                → {success, progress}
//	POST /api/execute                 → {success, execution}
//	POST /api/exercises/{id}/test     → {success, test_result}
//	GET  /api/health                  → 2xx when healthy
//
// # Error Handling
//
// Every operation except HealthCheck returns *Error on failure. The Kind field
// separates network problems (KindTransport) from rejections by the platform
// (KindRemote) and malformed payloads (KindDecode). When the platform sends an
// "error" string it becomes Message; otherwise Message is a fallback such as
// "failed to load lessons".
//
// HealthCheck never returns an error. Any failure is reported as false.
//
// No operation retries. A failed request is final and the caller decides
// whether to try again.
//
// # Request Correlation
//
// Every request carries an X-Request-ID header with a fresh UUID. The id is
// recorded on *Error so log lines can be matched against server logs.
package learn

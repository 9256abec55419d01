// Package http implements the HTTP handlers of the admissions web service.
// Handlers stay thin: they parse multipart uploads and JSON bodies, call the
// pipeline runner, the review session store or the run ledger, and respond
// with workbooks, JSON or RFC 7807 problem details.
//
// Routes mounted by the application:
//
//	POST   /api/passes/remarks              one workbook in field "file"
//	POST   /api/passes/scores?template=     one workbook in field "file"
//	POST   /api/passes/match                fields "scores" and "plan"
//	POST   /api/passes/convert              field "plan", optional "major", "college"
//	GET    /api/sessions/{id}               review session state
//	POST   /api/sessions/{id}/select        choose a code
//	POST   /api/sessions/{id}/advance|back  move the cursor
//	GET    /api/sessions/{id}/result        resolved workbook
//	DELETE /api/sessions/{id}
//	GET    /api/runs, /api/runs/{id}        ledger
//	GET    /api/health, /api/health/ready, /api/version
//
// Pass endpoints answer with an xlsx attachment unless the client asks for
// JSON with ?format=json or an Accept: application/json header. Progress is
// pushed over the websocket channel named by the X-Progress-Channel header.
package http

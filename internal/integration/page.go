package integration

import (
	"bytes"
	"html/template"
)

// The popup reports back to its opener and closes itself. html/template
// escapes every value for the script context it lands in.
var callbackPage = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8"/>
    <title>{{.Title}}</title>
</head>
<body>
    <p>{{.Message}}</p>
    <script>
    (function () {
        var payload = {type: {{.Type}}, service: {{.Service}}};
        {{if .Error}}payload.error = {{.Error}};{{end}}
        if (window.opener) {
            window.opener.postMessage(payload, '*');
        }
        setTimeout(function () { window.close(); }, {{.CloseDelayMs}});
    })();
    </script>
</body>
</html>`))

type pageData struct {
	Title        string
	Message      string
	Type         string
	Service      string
	Error        string
	CloseDelayMs int
}

const (
	messageSuccess = "OAUTH_SUCCESS"
	messageError   = "OAUTH_ERROR"
)

func renderCallbackPage(res CallbackResult) ([]byte, error) {
	data := pageData{
		Title:        "Connected",
		Message:      "Integration connected. You can close this window.",
		Type:         messageSuccess,
		Service:      res.Provider,
		CloseDelayMs: 1500,
	}
	if res.Outcome != OutcomeSuccess {
		data.Title = "Authorization failed"
		data.Type = messageError
		data.Error = PublicMessage(res.Err)
		data.Message = "Authorization failed: " + data.Error
		data.CloseDelayMs = 3000
	}

	var buf bytes.Buffer
	if err := callbackPage.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

package services

import "html/template"

var verificationTpl = template.Must(template.New("verification").Parse(`
	<h2>Verify your email</h2>
	<p>Thank you for signing up! Your verification code is:</p>
	<p style="font-size:32px;font-weight:bold;letter-spacing:5px">{{.Code}}</p>
	<p>Enter this code on the verification page to complete your registration.</p>
	<p>This code will expire in 24 hours for security reasons.</p>
	<p>If you didn't create an account with us, please ignore this email.</p>
`))

var welcomeTpl = template.Must(template.New("welcome").Parse(`
	<h2>Welcome{{if .Company}} to {{.Company}}{{end}}, {{.Name}}!</h2>
	<p>Your email address has been verified and your account is ready.</p>
	<p>Best regards,<br>The {{if .Company}}{{.Company}} {{end}}Team</p>
`))

var resetRequestTpl = template.Must(template.New("reset-request").Parse(`
	<h2>Password reset requested</h2>
	<p>We received a request to reset your password. If you didn't make this request, please ignore this email.</p>
	<p>To reset your password, click the link below:</p>
	<p><a href="{{.URL}}">Reset Password</a></p>
	<p>This link will expire in 1 hour for security reasons.</p>
`))

var resetSuccessTpl = template.Must(template.New("reset-success").Parse(`
	<h2>Password reset successful</h2>
	<p>We're writing to confirm that your password has been successfully reset.</p>
	<p>If you did not initiate this password reset, please contact our support team immediately.</p>
`))

package utils

import (
	"fmt"
	"log"
	"medibook/config"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendOTPEmail delivers a verification code by email.
// Declared as a variable so tests can stub delivery.
var SendOTPEmail = func(otp, email string) error {
	from := mail.NewEmail("Medibook", config.AppConfig.EmailSender)
	to := mail.NewEmail("", email)
	subject := "OTP Verification Code for Medibook"

	plain := fmt.Sprintf("Your One Time Password (OTP) is %s. Do not share it with anyone.", otp)
	html := fmt.Sprintf(`
		<html>
			<body style="font-family: Arial, sans-serif; background-color: #f4f4f4; padding: 20px;">
				<div style="max-width: 500px; margin: auto; background-color: #ffffff; border-radius: 8px; padding: 30px; box-shadow: 0 2px 8px rgba(0, 0, 0, 0.1);">
					<h2 style="color: #333333; text-align: center;">Medibook OTP Verification</h2>
					<p style="font-size: 16px; color: #555555; text-align: center;">Your One Time Password (OTP) is:</p>
					<h1 style="text-align: center; color: #4CAF50; font-size: 40px; margin: 20px 0;">%s</h1>
					<p style="font-size: 14px; color: #999999; text-align: center;">Do not share this OTP with anyone.</p>
					<p style="text-align: center; font-size: 12px; color: #bbbbbb; margin-top: 30px;">Thank you for using our service.</p>
				</div>
			</body>
		</html>
	`, otp)

	message := mail.NewSingleEmail(from, subject, to, plain, html)
	client := sendgrid.NewSendClient(config.AppConfig.SendGridKey)

	resp, err := client.Send(message)
	if err != nil {
		log.Printf("Error sending email: %v", err)
		return err
	}
	if resp.StatusCode >= 400 {
		log.Printf("Failed to send OTP email, response code: %d", resp.StatusCode)
		return fmt.Errorf("failed to send OTP email, code: %d", resp.StatusCode)
	}

	log.Println("Email sent successfully to", email)
	return nil
}

package utils

import (
	"fmt"
	"log"
	"medibook/config"
	"net/http"

	"github.com/go-resty/resty/v2"
)

// SendOTPToMobile delivers a verification code over the SMS gateway.
// Declared as a variable so tests can stub delivery.
var SendOTPToMobile = func(mobile, otp string) error {
	client := resty.New()
	resp, err := client.R().
		SetQueryParams(map[string]string{
			"authorization":    config.AppConfig.SMSApiKey,
			"route":            "dlt",
			"sender_id":        config.AppConfig.SMSSenderId,
			"message":          config.AppConfig.SMSTemplate,
			"variables_values": fmt.Sprintf("%s|10", otp),
			"flash":            "0",
			"numbers":          mobile,
		}).
		Get(config.AppConfig.SMSApiUrl)
	if err != nil {
		log.Printf("Error while sending OTP: %v", err)
		return err
	}

	if resp.StatusCode() != http.StatusOK {
		log.Printf("Failed to send OTP, response code: %d", resp.StatusCode())
		return fmt.Errorf("failed to send OTP, code: %d", resp.StatusCode())
	}

	log.Println("OTP sent successfully to", mobile)
	return nil
}

package config

import (
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	ld "github.com/launchdarkly/go-server-sdk/v7"
	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/constants"
	"github.com/rentflow/mono-repo/backend/shared/go-middleware"
	"github.com/rentflow/mono-repo/backend/shared/go-secrets"
	"github.com/rentflow/mono-repo/backend/shared/go-utils"
)

type Config struct {
	OrganizationName string
	AppName          string
	AppPort          string
	AppUrl           string
	DBUrl            string
	BusinessLocation *time.Location

	TwilioAccountSID string
	TwilioAuthToken  string
	SendgridAPIKey   string
	RSAPublicKey     *rsa.PublicKey

	UniqueRunNumber string
	UniqueRunnerID  string

	LDFlag_UsingIsolatedSchema         bool
	LDFlag_SeedDbWithTestData          bool
	LDFlag_CORSHighSecurity            bool
	LDFlag_SenderPhoneFallbackMatching bool
	LDFlag_SendPaymentConfirmationSMS  bool
	LDFlag_SendWelcomeSMS              bool
	LDFlag_ValidatePhoneWithTwilio     bool
	LDFlag_TwilioFromPhone             string
	LDFlag_SendgridFromEmail           string
	LDFlag_SendgridSandboxMode         bool
	LDFlag_OpsAlertEmail               string
	LDFlag_PaybillNumber               string
}

const (
	OrganizationName    = utils.OrganizationName
	LDConnectionTimeout = 5 * time.Second
)

var (
	AppName             string
	UniqueRunNumber     string
	UniqueRunnerID      string
	LDServerContextKey  string
	LDServerContextKind string
)

func LoadConfig() *Config {
	if AppName == "" {
		utils.Logger.Fatal("AppName ldflag missing")
	}
	if UniqueRunNumber == "" {
		utils.Logger.Fatal("UniqueRunNumber ldflag missing")
	}
	if UniqueRunnerID == "" {
		utils.Logger.Fatal("UniqueRunnerID ldflag missing")
	}
	if LDServerContextKey == "" || LDServerContextKind == "" {
		utils.Logger.Fatal("LD context ldflags missing")
	}

	utils.Logger.Info("Loading config for app: ", AppName)

	env := os.Getenv("ENV")
	if env == "" {
		utils.Logger.Fatal("ENV env var is missing")
	}
	appUrl := os.Getenv("APP_URL_FROM_ANYWHERE")
	if appUrl == "" {
		utils.Logger.Fatal("APP_URL_FROM_ANYWHERE env var is missing")
	}
	appPort := os.Getenv("APP_PORT")
	if appPort == "" {
		utils.Logger.Fatal("APP_PORT env var is missing")
	}

	tzName := utils.FirstNonEmpty(os.Getenv("BUSINESS_TIMEZONE"), constants.BusinessTimezone)
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		utils.Logger.WithError(err).Fatalf("Invalid BUSINESS_TIMEZONE %q", tzName)
	}

	client, err := secrets.NewBWSSecretsClient()
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to initialize BWSSecretsClient")
	}
	defer client.Close()

	appSecretsName := fmt.Sprintf("%s-%s", AppName, env)
	appSecrets, err := client.GetBWSSecrets(appSecretsName)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to fetch app secrets from BWS")
	}

	sharedSecretsName := fmt.Sprintf("shared-%s", env)
	sharedSecrets, err := client.GetBWSSecrets(sharedSecretsName)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to fetch shared secrets from BWS")
	}

	mustApp := func(key string) string {
		v, err := secrets.Require(appSecrets, key, appSecretsName)
		if err != nil {
			utils.Logger.Fatal(err)
		}
		return v
	}
	mustShared := func(key string) string {
		v, err := secrets.Require(sharedSecrets, key, sharedSecretsName)
		if err != nil {
			utils.Logger.Fatal(err)
		}
		return v
	}

	dbURL := mustApp("DB_URL")
	ldSDKKey := mustApp("LD_SDK_KEY")
	twilioSID := mustShared("TWILIO_ACCOUNT_SID")
	twilioToken := mustShared("TWILIO_AUTH_TOKEN")
	sendgridAPIKey := mustShared("SENDGRID_API_KEY")

	pubPEM, err := base64.StdEncoding.DecodeString(mustShared("RSA_PUBLIC_KEY_BASE64"))
	if err != nil {
		utils.Logger.WithError(err).Fatal("RSA_PUBLIC_KEY_BASE64 is not valid base64")
	}
	pubKey, err := middleware.ParseRSAPublicKey(string(pubPEM))
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to parse RSA public key")
	}

	ldClient, err := ld.MakeClient(ldSDKKey, LDConnectionTimeout)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to create LaunchDarkly client")
	}
	defer ldClient.Close()

	ctx := ldcontext.NewWithKind(ldcontext.Kind(LDServerContextKind), LDServerContextKey)

	boolFlag := func(key string, def bool) bool {
		v, err := ldClient.BoolVariation(key, ctx, def)
		if err != nil {
			utils.Logger.WithError(err).Fatalf("Error retrieving %s flag", key)
		}
		utils.Logger.Debugf("%s flag: %t", key, v)
		return v
	}
	stringFlag := func(key, def string) string {
		v, err := ldClient.StringVariation(key, ctx, def)
		if err != nil {
			utils.Logger.WithError(err).Fatalf("Error retrieving %s flag", key)
		}
		return utils.FirstNonEmpty(v, def)
	}

	twilioFrom := stringFlag("twilio_from_phone", "")
	if twilioFrom == "" {
		utils.Logger.Fatal("twilio_from_phone flag is empty")
	}

	return &Config{
		OrganizationName:                   OrganizationName,
		AppName:                            AppName,
		AppPort:                            appPort,
		AppUrl:                             appUrl,
		DBUrl:                              dbURL,
		BusinessLocation:                   loc,
		TwilioAccountSID:                   twilioSID,
		TwilioAuthToken:                    twilioToken,
		SendgridAPIKey:                     sendgridAPIKey,
		RSAPublicKey:                       pubKey,
		UniqueRunNumber:                    UniqueRunNumber,
		UniqueRunnerID:                     UniqueRunnerID,
		LDFlag_UsingIsolatedSchema:         boolFlag("using_isolated_schema", false),
		LDFlag_SeedDbWithTestData:          boolFlag("seed_db_with_test_data", false),
		LDFlag_CORSHighSecurity:            boolFlag("cors_high_security", false),
		LDFlag_SenderPhoneFallbackMatching: boolFlag("sender_phone_fallback_matching", true),
		LDFlag_SendPaymentConfirmationSMS:  boolFlag("send_payment_confirmation_sms", true),
		LDFlag_SendWelcomeSMS:              boolFlag("send_welcome_sms", true),
		LDFlag_ValidatePhoneWithTwilio:     boolFlag("validate_phone_with_twilio", false),
		LDFlag_TwilioFromPhone:             twilioFrom,
		LDFlag_SendgridFromEmail:           stringFlag("sendgrid_from_email", constants.DefaultFromEmail),
		LDFlag_SendgridSandboxMode:         boolFlag("sendgrid_sandbox_mode", false),
		LDFlag_OpsAlertEmail:               stringFlag("ops_alert_email", constants.DefaultOpsEmail),
		LDFlag_PaybillNumber:               stringFlag("paybill_number", constants.DefaultPaybillNumber),
	}
}

func (c *Config) Close() {}

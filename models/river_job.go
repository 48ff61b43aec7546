package models

// import one uploaded CSV file
type CsvImportArgs struct {
	JobId string `json:"job_id"`
}

func (CsvImportArgs) Kind() string { return "csv_import" }

// send a single test notification to a registered webhook
type WebhookTestArgs struct {
	WebhookId int64 `json:"webhook_id"`
}

func (WebhookTestArgs) Kind() string { return "webhook_test" }

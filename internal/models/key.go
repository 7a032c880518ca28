package models

// AccessKey represents an Outline access key
type AccessKey struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Password  string `json:"password"`
	Port      int    `json:"port"`
	Method    string `json:"method"`
	AccessURL string `json:"accessUrl"`
}

// AccessKeyList represents the response of the list access keys endpoint
type AccessKeyList struct {
	AccessKeys []AccessKey `json:"accessKeys"`
}

// TransferMetrics represents the aggregate per-key traffic counters
type TransferMetrics struct {
	BytesTransferredByUserID map[string]int64 `json:"bytesTransferredByUserId"`
}

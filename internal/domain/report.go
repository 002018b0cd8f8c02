package domain

import "strings"

// StatReportJob is the external, ephemeral report-generation resource.
// Status values come from the external system and are treated as opaque
// strings normalized to upper case; only its output survives a sync.
type StatReportJob struct {
	ID          string `json:"report_job_id"`
	Status      string `json:"status"`
	DownloadURL string `json:"download_url,omitempty"`
	ReportTp    string `json:"report_tp,omitempty"`
	StatDt      string `json:"stat_dt,omitempty"`
	StatDtTo    string `json:"stat_dt_to,omitempty"`
}

// NormalizeJobStatus upper-cases and trims an external job status.
func NormalizeJobStatus(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

var (
	terminalSuccess = map[string]bool{"BUILT": true, "DONE": true, "COMPLETED": true}
	terminalFailure = map[string]bool{"ERROR": true, "FAILED": true}
)

// Succeeded reports whether the job reached a terminal success state.
func (j StatReportJob) Succeeded() bool {
	return terminalSuccess[NormalizeJobStatus(j.Status)]
}

// Failed reports whether the job reached a terminal failure state.
func (j StatReportJob) Failed() bool {
	return terminalFailure[NormalizeJobStatus(j.Status)]
}

// Terminal reports whether polling should stop.
func (j StatReportJob) Terminal() bool {
	return j.Succeeded() || j.Failed()
}

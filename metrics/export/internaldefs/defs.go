package internaldefs

import (
	"github.com/cwhitmore/jwtguard"
)

// CounterDef names one engine counter for export.
type CounterDef struct {
	ID   jwtguard.MetricID
	Name string
	Help string
}

// CounterDefs lists every engine counter in export order.
var CounterDefs = []CounterDef{
	{ID: jwtguard.MetricAuthSuccess, Name: "jwtguard_auth_success_total", Help: "Authentication passes ending authenticated."},
	{ID: jwtguard.MetricAuthRejected, Name: "jwtguard_auth_rejected_total", Help: "Credential rejections of any cause."},
	{ID: jwtguard.MetricAuthExcluded, Name: "jwtguard_auth_excluded_total", Help: "Requests skipped via excluded paths."},
	{ID: jwtguard.MetricAuthRetrievalFailure, Name: "jwtguard_auth_retrieval_failure_total", Help: "User retriever malfunctions."},
	{ID: jwtguard.MetricTokenIssued, Name: "jwtguard_token_issued_total", Help: "Tokens minted through CreateToken or Login."},
	{ID: jwtguard.MetricLoginResponses, Name: "jwtguard_login_responses_total", Help: "Login responses written."},
}

// AuditDroppedName is the counter for audit events lost to backpressure.
const AuditDroppedName = "jwtguard_audit_dropped_total"

// AuditDroppedHelp documents [AuditDroppedName].
const AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."

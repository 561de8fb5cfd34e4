package enum

type LeadStatus string

const (
	LeadStatusNew         LeadStatus = "new"
	LeadStatusOutreached  LeadStatus = "outreached"
	LeadStatusFollowUpDue LeadStatus = "follow_up_due"
	LeadStatusReplied     LeadStatus = "replied"
	LeadStatusConverted   LeadStatus = "converted"
	LeadStatusOptedOut    LeadStatus = "opted_out"
	LeadStatusClosed      LeadStatus = "closed"
)

func (t LeadStatus) String() string {
	return string(t)
}

// IsTerminal reports whether no further transitions are allowed from this status.
func (t LeadStatus) IsTerminal() bool {
	switch t {
	case LeadStatusConverted, LeadStatusOptedOut, LeadStatusClosed:
		return true
	}
	return false
}

type AdmissionResult string

const (
	AdmissionInserted        AdmissionResult = "inserted"
	AdmissionSkippedExisting AdmissionResult = "skipped_existing"
	AdmissionSkippedOptedOut AdmissionResult = "skipped_opted_out"
	AdmissionInvalid         AdmissionResult = "invalid"
)

func (t AdmissionResult) String() string {
	return string(t)
}

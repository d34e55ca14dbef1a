package v1

const SourceWorkGovernance = "work-governance-service"

const (
	EventAuthorCreated          = "author.created"
	EventAuthorUpdated          = "author.updated"
	EventAuthorDeleted          = "author.deleted"
	EventWorkCreated            = "work.created"
	EventWorkUpdated            = "work.updated"
	EventWorkDeleted            = "work.deleted"
	EventWorkRated              = "work.rated"
	EventWorkCollaboratorsAdded = "work.collaborators_added"
	EventWorkInfringementReport = "work.infringement_reported"
	EventWorkAccessGranted      = "work.access_granted"
	EventWorkVoteCast           = "work.vote_cast"
	EventWorkRoundRejected      = "work.round_rejected"
	EventFundsTransferRequested = "funds.transfer_requested"
)

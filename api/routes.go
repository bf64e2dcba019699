package api

// Route constants for the API endpoints

const (
	// Health endpoint
	PingEndpoint = "/ping" // Health check endpoint

	// Info endpoint
	InfoEndpoint = "/info" // GET: Node version and reveal profile

	// Poll endpoints
	PollURLParam         = "pollId"                                                // URL parameter for poll ID
	AddressURLParam      = "address"                                               // URL parameter for address
	CommitmentURLParam   = "commitment"                                            // URL parameter for vote commitment
	OptionURLParam       = "optionIndex"                                           // URL parameter for option index
	PollsEndpoint        = "/polls"                                                // GET: List polls, POST: Create poll
	PollEndpoint         = PollsEndpoint + "/{" + PollURLParam + "}"               // GET: Poll summary
	PollMetadataEndpoint = PollEndpoint + "/metadata"                              // PUT: Replace encrypted question fields
	PollOptionsEndpoint  = PollEndpoint + "/options"                               // GET: Encrypted options and tallies
	PollOptionEndpoint   = PollOptionsEndpoint + "/{" + OptionURLParam + "}"       // GET: Single option tally
	PollCloseEndpoint    = PollEndpoint + "/close"                                 // POST: Close before EndTime
	PollRevealEndpoint   = PollEndpoint + "/reveal"                                // POST: Request reveal (finalizer profile)
	PollResultsEndpoint  = PollEndpoint + "/results"                               // GET: Disclosed counts, POST: Submit counts (submission profile)
	PollKeyEndpoint      = PollEndpoint + "/key"                                   // GET: Encryption public key
	PollCommentsEndpoint = PollEndpoint + "/comments/{" + CommitmentURLParam + "}" // GET: Comments of a commitment
	CreatorPollsEndpoint = "/accounts/{" + AddressURLParam + "}/polls"             // GET: Polls created by address

	// Vote endpoints
	VotesEndpoint      = "/votes"                                                               // POST: Submit a weighted vote
	VoteStatusEndpoint = VotesEndpoint + "/{" + PollURLParam + "}/{" + CommitmentURLParam + "}" // GET: Spent status of a commitment

	// Comment endpoint
	CommentsEndpoint = "/comments" // POST: Attach an encrypted comment

	// Admin endpoints
	AdminEndpoint         = "/admin"                    // GET: Administration record
	AdminPauseEndpoint    = AdminEndpoint + "/pause"    // POST: Toggle the creation pause latch
	AdminFeeEndpoint      = AdminEndpoint + "/fee"      // POST: Set the creation fee
	AdminWithdrawEndpoint = AdminEndpoint + "/withdraw" // POST: Drain collected fees
	AdminTransferEndpoint = AdminEndpoint + "/transfer" // POST: Transfer node ownership
)

// LogExcludedPrefixes defines URL prefixes to exclude from request logging
var LogExcludedPrefixes = []string{
	PingEndpoint,
	InfoEndpoint,
}

package access

type AccessState string

const (
	AccessFree      AccessState = "free"
	AccessPremium   AccessState = "premium"
	AccessUnlimited AccessState = "unlimited"
)

const (
	CapQuestions         = "questions"
	CapAllCompanyQs      = "all_company_questions"
	CapSolutions         = "solutions"
	CapSolutionRequests  = "solution_requests"
	CapUnlimitedSolution = "unlimited_solutions"
)

package access

func CapabilitiesFor(state AccessState) []string {
	switch state {
	case AccessUnlimited:
		return []string{CapQuestions, CapAllCompanyQs, CapSolutions, CapSolutionRequests, CapUnlimitedSolution}
	case AccessPremium:
		return []string{CapQuestions, CapAllCompanyQs, CapSolutions, CapSolutionRequests}
	default:
		return []string{CapQuestions}
	}
}

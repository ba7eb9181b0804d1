package cli

import (
	"github.com/hupe1980/agentchat/directory"
)

// demoDirectory is used when no directory file is configured.
const demoDirectory = `
agents:
  - id: alice
    name: Alice
    role: Site Reliability Engineer
    description: Owns production infrastructure and the on-call rotation.
    knowledge:
      - "Production deploys freeze every Friday after 14:00 UTC."
      - "The primary database fails over to the eu-west replica automatically."
      - "On-call escalations go to the #ops-fire channel first."
  - id: henry
    name: Henry
    role: Backend Lead
    description: Leads the payments and accounts services.
    knowledge:
      - "The payments service retries webhooks three times with exponential backoff."
      - "Release 4.2 ships the new invoicing API."
  - id: bob
    name: Bob
    role: Product Manager
    description: Plans the roadmap and talks to customers.
    knowledge:
      - "The Q3 roadmap prioritises invoicing and onboarding."
      - "New hires get a buddy for their first two weeks."
channels:
  - id: general
    name: General
    description: Company wide discussion.
    agents: [alice, henry, bob]
  - id: ops
    name: Operations
    description: Incidents and deploys.
    agents: [alice, henry]
`

func loadDemoDirectory() (*directory.Static, error) {
	f, err := directory.Parse([]byte(demoDirectory))
	if err != nil {
		return nil, err
	}
	return directory.NewStatic(f.Agents, f.Channels)
}

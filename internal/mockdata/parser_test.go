package mockdata

import "testing"

const fixture = `
import { Task, TeamMember } from './types';

export const atRiskTasks: Task[] = [
  {
    id: 'task-001',
    title: "Migrate billing to the new gateway",
    priority: 'high',
    status: 'at_risk',
    suggestions: [
      { memberId: 'mem-007', contextReason: 'Led the last gateway migration' },
      { memberId: 'mem-002', contextReason: "Owns the billing service" },
    ],
  },
  {
    id: 'task-002',
    title: 'Refresh onboarding docs',
    priority: 'low',
    status: 'open',
  },
];

export const teamMembers: TeamMember[] = [
  {
    id: 'mem-007',
    name: 'Dana Reyes',
    role: 'Senior Backend Engineer',
    skills: ['Go', 'Payments', 'Kubernetes'],
  },
  {
    id: 'mem-002',
    name: 'Alex Kim',
    role: 'Backend Engineer',
    skills: ['Python', 'Billing'],
  },
  {
    id: 'placeholder-01',
    name: 'Unassigned',
    role: '',
  },
];
`

func TestParseTasksAndMembers(t *testing.T) {
	tasks, members, err := Parse(fixture)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}

	first := tasks[0]
	if first.ID != "task-001" || first.Title != "Migrate billing to the new gateway" {
		t.Errorf("task = %+v", first)
	}
	if len(first.Suggestions) != 2 {
		t.Fatalf("expected 2 suggestion stubs, got %d", len(first.Suggestions))
	}
	if first.Suggestions[0].MemberID != "mem-007" ||
		first.Suggestions[0].ContextReason != "Led the last gateway migration" {
		t.Errorf("stub = %+v", first.Suggestions[0])
	}

	if len(tasks[1].Suggestions) != 0 {
		t.Errorf("task-002 should have no suggestions, got %+v", tasks[1].Suggestions)
	}

	if len(members) != 2 {
		t.Fatalf("expected 2 members (placeholder excluded), got %d", len(members))
	}
	dana := members["mem-007"]
	if dana == nil || dana.Name != "Dana Reyes" {
		t.Fatalf("mem-007 = %+v", dana)
	}
	if len(dana.Skills) != 3 || dana.Skills[1] != "Payments" {
		t.Errorf("skills = %v", dana.Skills)
	}
}

func TestParseMissingTasksArrayIsFatal(t *testing.T) {
	_, _, err := Parse("export const teamMembers = [];\n")
	if err == nil {
		t.Fatal("expected error for missing atRiskTasks")
	}
}

func TestParseMissingMembersArrayIsFatal(t *testing.T) {
	_, _, err := Parse("export const atRiskTasks = [{ id: 'task-1', title: 't' }];\n")
	if err == nil {
		t.Fatal("expected error for missing teamMembers")
	}
}

func TestParseSkipsObjectsWithoutID(t *testing.T) {
	src := `
export const atRiskTasks = [
  { title: 'no id here' },
  { id: 'task-9', title: 'kept' },
];
export const teamMembers = [
  { id: 'mem-1', name: 'A' },
];
`
	tasks, _, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != "task-9" {
		t.Fatalf("tasks = %+v", tasks)
	}
}

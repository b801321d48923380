package git

import (
	"strconv"
	"strings"
	"time"
)

// parseStatus parses `git status --porcelain=v1 -b` output.
// The branch header looks like:
//
//	## main...origin/main [ahead 1, behind 2]
//
// followed by one `XY path` line per changed file.
func parseStatus(out string) RepositoryStatus {
	status := RepositoryStatus{Clean: true}

	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "## ") {
			parseBranchHeader(line[3:], &status)
			continue
		}

		if len(line) < 4 {
			continue
		}

		x, y := line[0], line[1]
		path := line[3:]
		// Renames report "old -> new"; the new path is the one that matters.
		if idx := strings.Index(path, " -> "); idx != -1 {
			path = path[idx+4:]
		}

		status.Clean = false
		switch {
		case x == '?' && y == '?':
			status.Untracked = append(status.Untracked, path)
		default:
			if x != ' ' && x != '?' {
				status.Staged = append(status.Staged, path)
			}
			if y != ' ' && y != '?' {
				status.Unstaged = append(status.Unstaged, path)
			}
		}
	}

	return status
}

func parseBranchHeader(header string, status *RepositoryStatus) {
	// "No commits yet on main" appears in fresh repositories.
	if rest, ok := strings.CutPrefix(header, "No commits yet on "); ok {
		status.Branch = strings.TrimSpace(rest)
		return
	}

	branch := header
	if idx := strings.Index(branch, "..."); idx != -1 {
		branch = branch[:idx]
	}
	if idx := strings.Index(branch, " ["); idx != -1 {
		branch = branch[:idx]
	}
	status.Branch = strings.TrimSpace(branch)

	if open := strings.Index(header, "["); open != -1 {
		if end := strings.Index(header[open:], "]"); end != -1 {
			for _, part := range strings.Split(header[open+1:open+end], ",") {
				part = strings.TrimSpace(part)
				if n, ok := strings.CutPrefix(part, "ahead "); ok {
					status.Ahead, _ = strconv.Atoi(n)
				}
				if n, ok := strings.CutPrefix(part, "behind "); ok {
					status.Behind, _ = strconv.Atoi(n)
				}
			}
		}
	}
}

func parseISOTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// parseLog parses git log output produced with logFormat.
func parseLog(out string) ([]Commit, error) {
	out = strings.TrimSpace(out)
	if out == "" {
		return nil, nil
	}

	var commits []Commit
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Split(line, "\x1f")
		if len(fields) != 4 {
			continue
		}

		commit := Commit{
			Hash:    fields[0],
			Author:  fields[1],
			Message: fields[3],
		}
		if t, err := parseISOTime(fields[2]); err == nil {
			commit.Date = t
		}
		commits = append(commits, commit)
	}

	return commits, nil
}

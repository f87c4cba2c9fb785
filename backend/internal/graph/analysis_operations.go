package graph

import (
	"context"
	"sort"
	"time"

	"groupme-analyzer/backend/internal/state"
	"groupme-analyzer/backend/internal/stats"
	apperrors "groupme-analyzer/backend/pkg/errors"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// ============================================================================
// Analysis Operations
// ============================================================================

// SaveAnalysis stores a finished analysis as (:Member)-[:MEASURED]->(:Analysis)-[:OF_GROUP]->(:Group)
// plus per-analysis LIKED and SHARED_LIKES edges between members, in one transaction.
func (r *Repository) SaveAnalysis(ctx context.Context, analysisID string, group state.Group, s *stats.Stats) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	now := time.Now().UTC().Format(time.RFC3339)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		analysisQuery := `
			MERGE (g:Group {id: $groupID})
			SET g.name = $groupName
			CREATE (a:Analysis {
				id: $analysisID,
				created_at: datetime($now),
				messages_processed: $messagesProcessed
			})
			CREATE (a)-[:OF_GROUP]->(g)
		`
		if _, err := tx.Run(ctx, analysisQuery, map[string]interface{}{
			"groupID":           group.ID,
			"groupName":         group.Name,
			"analysisID":        analysisID,
			"now":               now,
			"messagesProcessed": s.MessagesProcessed(),
		}); err != nil {
			return nil, apperrors.NewGraphQueryFailed("create analysis", err)
		}

		membersQuery := `
			MATCH (a:Analysis {id: $analysisID})
			UNWIND $members AS m
			MERGE (u:Member {id: m.id})
			SET u.name = CASE WHEN m.name <> '' THEN m.name ELSE u.name END
			CREATE (u)-[:MEASURED {
				position: m.position,
				name: m.name,
				messages_sent: m.messages_sent,
				likes_given: m.likes_given,
				self_likes: m.self_likes,
				likes_received: m.likes_received,
				words_sent: m.words_sent
			}]->(a)
		`
		if _, err := tx.Run(ctx, membersQuery, map[string]interface{}{
			"analysisID": analysisID,
			"members":    memberParams(s),
		}); err != nil {
			return nil, apperrors.NewGraphQueryFailed("store members", err)
		}

		likedQuery := `
			UNWIND $edges AS e
			MATCH (from:Member {id: e.from}), (to:Member {id: e.to})
			CREATE (from)-[:LIKED {analysis_id: $analysisID, count: e.count}]->(to)
		`
		if _, err := tx.Run(ctx, likedQuery, map[string]interface{}{
			"analysisID": analysisID,
			"edges":      likeEdges(s),
		}); err != nil {
			return nil, apperrors.NewGraphQueryFailed("store likes", err)
		}

		sharedQuery := `
			UNWIND $edges AS e
			MATCH (from:Member {id: e.from}), (to:Member {id: e.to})
			CREATE (from)-[:SHARED_LIKES {analysis_id: $analysisID, count: e.count}]->(to)
		`
		if _, err := tx.Run(ctx, sharedQuery, map[string]interface{}{
			"analysisID": analysisID,
			"edges":      sharedLikeEdges(s),
		}); err != nil {
			return nil, apperrors.NewGraphQueryFailed("store shared likes", err)
		}

		return nil, nil
	})
	if err != nil {
		return err
	}

	r.logger.Info("Analysis stored in graph",
		zap.String("analysis_id", analysisID),
		zap.String("group_id", group.ID),
		zap.Int("members", s.Len()),
	)
	return nil
}

// FetchAnalysis loads a stored analysis with its member rows in first-seen order
func (r *Repository) FetchAnalysis(ctx context.Context, analysisID string) (*Analysis, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (a:Analysis {id: $analysisID})-[:OF_GROUP]->(g:Group)
		OPTIONAL MATCH (u:Member)-[m:MEASURED]->(a)
		RETURN
			a.id as id,
			g.id as group_id,
			g.name as group_name,
			a.messages_processed as messages_processed,
			a.created_at as created_at,
			collect({
				id: u.id,
				position: m.position,
				name: m.name,
				messages_sent: m.messages_sent,
				likes_given: m.likes_given,
				self_likes: m.self_likes,
				likes_received: m.likes_received,
				words_sent: m.words_sent
			}) as members
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"analysisID": analysisID,
	})
	if err != nil {
		return nil, apperrors.NewGraphQueryFailed("fetch analysis", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return nil, apperrors.NewGraphQueryFailed("fetch analysis", err)
		}
		return nil, apperrors.NewAnalysisNotFound(analysisID)
	}

	record := result.Record()
	analysis := &Analysis{
		ID:                getStringFromRecord(record, "id"),
		GroupID:           getStringFromRecord(record, "group_id"),
		GroupName:         getStringFromRecord(record, "group_name"),
		MessagesProcessed: getIntFromRecord(record, "messages_processed"),
		CreatedAt:         getTimeFromRecord(record, "created_at"),
	}

	members, _ := record.Get("members")
	analysis.Members = parseMembers(members)
	return analysis, nil
}

func parseMembers(raw interface{}) []MemberCounter {
	list, ok := raw.([]interface{})
	if !ok {
		return []MemberCounter{}
	}

	type positioned struct {
		pos int
		row MemberCounter
	}
	rows := make([]positioned, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		id := getStringFromMap(m, "id")
		if id == "" {
			// OPTIONAL MATCH with no members yields one all-null map
			continue
		}
		rows = append(rows, positioned{
			pos: getIntFromMap(m, "position"),
			row: MemberCounter{
				ID:            id,
				Name:          getStringFromMap(m, "name"),
				MessagesSent:  getIntFromMap(m, "messages_sent"),
				LikesGiven:    getIntFromMap(m, "likes_given"),
				SelfLikes:     getIntFromMap(m, "self_likes"),
				LikesReceived: getIntFromMap(m, "likes_received"),
				WordsSent:     getIntFromMap(m, "words_sent"),
			},
		})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].pos < rows[j].pos })

	out := make([]MemberCounter, 0, len(rows))
	for _, p := range rows {
		out = append(out, p.row)
	}
	return out
}

func memberParams(s *stats.Stats) []interface{} {
	members := s.Members()
	out := make([]interface{}, 0, len(members))
	for i, m := range members {
		out = append(out, map[string]interface{}{
			"id":             m.ID,
			"position":       i,
			"name":           m.Name,
			"messages_sent":  m.MessagesSent,
			"likes_given":    m.LikesGiven,
			"self_likes":     m.SelfLikes,
			"likes_received": m.LikesReceived,
			"words_sent":     m.WordsSent,
		})
	}
	return out
}

// likeEdges points from each liker to the member whose messages they liked
func likeEdges(s *stats.Stats) []interface{} {
	out := []interface{}{}
	for _, m := range s.Members() {
		for _, likerID := range sortedKeys(m.LikesByMember) {
			out = append(out, edge(likerID, m.ID, m.LikesByMember[likerID]))
		}
	}
	return out
}

func sharedLikeEdges(s *stats.Stats) []interface{} {
	out := []interface{}{}
	for _, m := range s.Members() {
		for _, otherID := range sortedKeys(m.SharedLikes) {
			out = append(out, edge(m.ID, otherID, m.SharedLikes[otherID]))
		}
	}
	return out
}

func edge(from, to string, count int) map[string]interface{} {
	return map[string]interface{}{"from": from, "to": to, "count": count}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

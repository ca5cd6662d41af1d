// Package compiler turns CUE sync definitions into ir.Sync values.
//
// A sync file declares rules under a top-level "sync" struct:
//
//	sync: notify: {
//		priority: 1
//		when: [{
//			concept: "ArticlePublish"
//			action:  "publish"
//			variant: "ok"
//			bind: {article: "id"}
//		}]
//		where: [
//			{query: {
//				concept:  "Group"
//				relation: "members"
//				filter: {field: "group", var: "group"}
//				bind: {user: "user"}
//			}},
//		]
//		then: [{
//			concept: "Notification"
//			action:  "send"
//			args: {article: "${bound.article}", user: "${bound.user}"}
//		}]
//	}
//
// Compilation is structural only; variable binding and declared
// concept/action checks happen at registration.
package compiler

package graphql

// Operation documents sent to the collaborator. Every document is checked
// against the embedded schema at client construction, so drift between the
// two fails fast instead of at the collaborator.

const issueSelection = `
    id
    number
    title
    date
    published
    publishedAt
    versionCount
    previewImage
    topics {
      id
      title
      comment
      position
      issue { id }
      links {
        id
        url
        title
        text
        position
        topic { id }
      }
    }`

const linkSelection = `
    id
    url
    title
    text
    position
    topic { id }`

const queryAllIssues = `query AllIssues {
  allIssues {` + issueSelection + `
  }
}`

const queryIssue = `query Issue($id: ID!) {
  issue(id: $id) {` + issueSelection + `
  }
}`

const queryAllLinks = `query AllLinks {
  allLinks {` + linkSelection + `
  }
}`

const queryUnassignedLinks = `query UnassignedLinks {
  unassignedLinks {` + linkSelection + `
  }
}`

const mutationCreateIssue = `mutation CreateIssue($title: String!, $number: Int!, $published: Boolean!, $date: DateTime) {
  createIssue(title: $title, number: $number, published: $published, date: $date) {` + issueSelection + `
  }
}`

const mutationUpdateIssue = `mutation UpdateIssue($id: ID!, $title: String, $date: DateTime, $published: Boolean, $versionCount: Int, $previewImage: String, $updateLinks: [LinkUpdateInput!], $deleteLinks: [ID!]) {
  updateIssue(id: $id, title: $title, date: $date, published: $published, versionCount: $versionCount, previewImage: $previewImage, updateLinks: $updateLinks, deleteLinks: $deleteLinks) {` + issueSelection + `
  }
}`

const mutationCreateTopic = `mutation CreateTopic($title: String!, $comment: String, $issueId: ID!) {
  createTopic(title: $title, issue_comment: $comment, issueId: $issueId) {
    id
    title
    comment
    position
    issue { id }
    links {` + linkSelection + `
    }
  }
}`

const mutationUpdateTopic = `mutation UpdateTopic($id: ID!, $title: String, $comment: String, $position: Int) {
  updateTopic(id: $id, title: $title, issue_comment: $comment, position: $position) {
    id
    title
    comment
    position
    issue { id }
    links {` + linkSelection + `
    }
  }
}`

const mutationDetachTopic = `mutation DetachTopic($id: ID!) {
  updateTopicWhenIssueDeleted(id: $id) {
    id
  }
}`

const mutationCreateLink = `mutation CreateLink($url: String!) {
  createLink(url: $url) {` + linkSelection + `
  }
}`

const mutationUpdateLink = `mutation UpdateLink($id: ID!, $title: String, $text: String, $url: String, $position: Int, $topicId: ID) {
  updateLink(id: $id, title: $title, text: $text, url: $url, position: $position, topicId: $topicId) {` + linkSelection + `
  }
}`

const mutationDeleteLink = `mutation DeleteLink($id: ID!) {
  deleteLink(id: $id) {
    id
  }
}`

const mutationAddLinkToTopic = `mutation AddLinkToTopic($topicId: ID!, $linkId: ID!) {
  addLinksToTopic(topicId: $topicId, linkId: $linkId) {
    id
  }
}`

const mutationCreateSubscriber = `mutation CreateSubscriber($name: String!, $email: String!) {
  createSubscriber(name: $name, email: $email) {
    id
    name
    email
  }
}`

const mutationCreateSubmissionLink = `mutation CreateSubmissionLink($name: String!, $email: String!, $description: String, $title: String, $url: String!) {
  createSubmissionLink(name: $name, email: $email, description: $description, title: $title, url: $url) {
    id
    name
    email
    url
    title
    description
    createdAt
  }
}`

// operations lists every document for boundary validation.
var operations = []string{
	queryAllIssues,
	queryIssue,
	queryAllLinks,
	queryUnassignedLinks,
	mutationCreateIssue,
	mutationUpdateIssue,
	mutationCreateTopic,
	mutationUpdateTopic,
	mutationDetachTopic,
	mutationCreateLink,
	mutationUpdateLink,
	mutationDeleteLink,
	mutationAddLinkToTopic,
	mutationCreateSubscriber,
	mutationCreateSubmissionLink,
}
